package univ2

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
)

// Calculator implements exact-input constant-product swap math with the
// standard 0.3% fee.
type Calculator struct{}

// NewCalculator creates a constant-product amount calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateAmounts computes the output amount and price impact for an
// exact-input swap:
//
//	amountOut = (amountIn * 997 * reserveOut) / (reserveIn * 1000 + amountIn * 997)
//
// Price impact is the relative shortfall of the execution price against the
// pre-trade spot price.
func (c *Calculator) CalculateAmounts(state *domain.PoolState, amountIn *big.Int, direction domain.Direction) (*domain.AmountQuote, error) {
	if state == nil || state.Reserve0 == nil || state.Reserve1 == nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("pool state carries no reserves"))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amount in must be positive"))
	}

	reserveIn, reserveOut := state.Reserve0, state.Reserve1
	if direction == domain.OneForZero {
		reserveIn, reserveOut = state.Reserve1, state.Reserve0
	}

	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("pool has empty reserves"))
	}

	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(feeNumerator))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(feeDenominator))
	denominator.Add(denominator, amountInWithFee)

	amountOut := numerator.Quo(numerator, denominator)
	if amountOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("swap output rounds to zero"))
	}

	impact := priceImpact(reserveIn, reserveOut, amountIn, amountOut)

	return &domain.AmountQuote{
		AmountOut:   amountOut,
		PriceImpact: impact,
	}, nil
}

// priceImpact = 1 - (amountOut/amountIn) / (reserveOut/reserveIn).
func priceImpact(reserveIn, reserveOut, amountIn, amountOut *big.Int) decimal.Decimal {
	spot := decimal.NewFromBigInt(reserveOut, 0).Div(decimal.NewFromBigInt(reserveIn, 0))
	if spot.IsZero() {
		return decimal.Zero
	}

	exec := decimal.NewFromBigInt(amountOut, 0).Div(decimal.NewFromBigInt(amountIn, 0))

	impact := decimal.NewFromInt(1).Sub(exec.Div(spot))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}
