// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/business/pricing/domain"
)

// PoolReader retrieves canonical pool state for one exchange variant.
type PoolReader interface {
	// Venue returns the variant this reader serves.
	Venue() domain.Venue

	// ReadState fetches the pool's current state through the given handle.
	ReadState(ctx context.Context, handle *chaindomain.ContractHandle) (*domain.PoolState, error)
}

// AmountCalculator is the per-venue capability for swap math. Variants whose
// on-chain math has not been mapped fail with UNSUPPORTED_OPERATION rather
// than returning an approximation.
type AmountCalculator interface {
	// CalculateAmounts computes the output amount and price impact for an
	// exact-input swap against the given pool state.
	CalculateAmounts(state *domain.PoolState, amountIn *big.Int, direction domain.Direction) (*domain.AmountQuote, error)
}

// ReferenceOracle supplies an off-chain reference price in USD, used to
// express gas costs in quote currency.
type ReferenceOracle interface {
	// SpotUSD returns the current USD spot price for the given symbol.
	SpotUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// DecimalsSource resolves the decimal places of a token on the given chain.
// The bool reports whether the token was actually known.
type DecimalsSource interface {
	Decimals(chainID uint64, addr common.Address) (uint8, bool)
}
