// Package domain contains the core domain types for the pricing context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PoolState is a snapshot of one pool's AMM curve at a block. It is produced
// fresh on every read and never mutated.
type PoolState struct {
	Venue        Venue
	SqrtPriceX96 *big.Int // Q64.96 sqrt of token1/token0 price
	Tick         int32
	Liquidity    *big.Int // venue-native units

	// Raw reserves, populated for constant-product venues only.
	Reserve0 *big.Int
	Reserve1 *big.Int

	ReadAt time.Time
}

// ValidateLiquidity reports whether the pool carries at least min liquidity.
// Missing or zero liquidity is invalid; a nil min means any positive amount.
// Total: never returns an error.
func ValidateLiquidity(state *PoolState, min *big.Int) bool {
	if state == nil || state.Liquidity == nil || state.Liquidity.Sign() <= 0 {
		return false
	}
	if min == nil {
		return true
	}
	return state.Liquidity.Cmp(min) >= 0
}

// AmountQuote is the outcome of a venue amount calculation.
type AmountQuote struct {
	AmountOut   *big.Int
	PriceImpact decimal.Decimal // fraction in [0,1)
}
