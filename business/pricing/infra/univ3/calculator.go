package univ3

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
)

// feePipsDenominator is the fee unit: hundredths of a bip (1e-6).
const feePipsDenominator = 1_000_000

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

// Calculator implements exact-input swap math within the current tick range.
// Swaps large enough to cross a tick boundary need the pool's tick bitmap,
// which this calculator does not read; its results are exact only while
// liquidity stays constant.
type Calculator struct {
	feePips uint32 // e.g. 3000 = 0.30%
}

// NewCalculator creates a within-tick amount calculator for a pool fee tier.
func NewCalculator(feePips uint32) *Calculator {
	return &Calculator{feePips: feePips}
}

// CalculateAmounts computes output amount and price impact from the current
// sqrt price and in-range liquidity.
func (c *Calculator) CalculateAmounts(state *domain.PoolState, amountIn *big.Int, direction domain.Direction) (*domain.AmountQuote, error) {
	if state == nil || state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("pool state carries no sqrt price"))
	}
	if state.Liquidity == nil || state.Liquidity.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool has no in-range liquidity"))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amount in must be positive"))
	}

	// Pool fee comes off the input before it moves the price.
	effIn := new(big.Int).Mul(amountIn, big.NewInt(int64(feePipsDenominator-c.feePips)))
	effIn.Quo(effIn, big.NewInt(feePipsDenominator))
	if effIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("amount in consumed entirely by fee"))
	}

	sqrtP := state.SqrtPriceX96
	liquidity := state.Liquidity

	var sqrtNext, amountOut *big.Int
	if direction == domain.ZeroForOne {
		sqrtNext = sqrtPriceNextZeroForOne(sqrtP, liquidity, effIn)
		// amountOut = L * (sqrtP - sqrtNext) / Q96
		amountOut = new(big.Int).Sub(sqrtP, sqrtNext)
		amountOut.Mul(amountOut, liquidity)
		amountOut.Quo(amountOut, q96)
	} else {
		sqrtNext = sqrtPriceNextOneForZero(sqrtP, liquidity, effIn)
		// amountOut = L * Q96 * (sqrtNext - sqrtP) / (sqrtNext * sqrtP)
		diff := new(big.Int).Sub(sqrtNext, sqrtP)
		amountOut = new(big.Int).Mul(liquidity, q96)
		amountOut.Mul(amountOut, diff)
		amountOut.Quo(amountOut, new(big.Int).Mul(sqrtNext, sqrtP))
	}

	if amountOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("swap output rounds to zero"))
	}

	return &domain.AmountQuote{
		AmountOut:   amountOut,
		PriceImpact: priceImpact(sqrtP, sqrtNext, direction),
	}, nil
}

// sqrtPriceNextZeroForOne: sqrtNext = (L * sqrtP * Q96) / (L * Q96 + amountIn * sqrtP).
func sqrtPriceNextZeroForOne(sqrtP, liquidity, amountIn *big.Int) *big.Int {
	numerator := new(big.Int).Mul(liquidity, sqrtP)
	numerator.Mul(numerator, q96)

	denominator := new(big.Int).Mul(liquidity, q96)
	denominator.Add(denominator, new(big.Int).Mul(amountIn, sqrtP))

	return numerator.Quo(numerator, denominator)
}

// sqrtPriceNextOneForZero: sqrtNext = sqrtP + amountIn * Q96 / L.
func sqrtPriceNextOneForZero(sqrtP, liquidity, amountIn *big.Int) *big.Int {
	delta := new(big.Int).Mul(amountIn, q96)
	delta.Quo(delta, liquidity)
	return new(big.Int).Add(sqrtP, delta)
}

// priceImpact is the relative move of the pool price caused by the swap, as
// a fraction in [0,1).
func priceImpact(sqrtBefore, sqrtNext *big.Int, direction domain.Direction) decimal.Decimal {
	before := decimal.NewFromBigInt(sqrtBefore, 0)
	after := decimal.NewFromBigInt(sqrtNext, 0)
	if before.IsZero() || after.IsZero() {
		return decimal.Zero
	}

	var ratio decimal.Decimal
	if direction == domain.ZeroForOne {
		// Price falls: impact = 1 - (sqrtNext/sqrtBefore)^2.
		ratio = after.Div(before)
	} else {
		// Price rises: impact = 1 - (sqrtBefore/sqrtNext)^2.
		ratio = before.Div(after)
	}

	impact := decimal.NewFromInt(1).Sub(ratio.Mul(ratio))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}
