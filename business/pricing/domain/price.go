// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// priceScaleDigits is the number of decimal guard digits carried through the
// integer division so the result keeps well over 18 significant digits.
const priceScaleDigits = 38

// maxTokenDecimals bounds the decimals arguments; ERC-20 tokens above this
// are malformed.
const maxTokenDecimals = 38

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// PriceFromState converts a Q64.96 sqrt price into a decimal token1/token0
// price adjusted for token decimals:
//
//	price = (sqrtPriceX96 / 2^96)^2 * 10^(decimals1 - decimals0)
//
// The computation stays in big integers end to end. Binary floating point
// would discard the low-order bits that decide marginal profitability.
func PriceFromState(state *PoolState, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	if state == nil || state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, apperror.New(apperror.CodePrecisionOverflow,
			apperror.WithContext("sqrt price missing or non-positive"))
	}
	if decimals0 > maxTokenDecimals || decimals1 > maxTokenDecimals {
		return decimal.Zero, apperror.New(apperror.CodePrecisionOverflow,
			apperror.WithContext(fmt.Sprintf("token decimals out of range: %d/%d", decimals0, decimals1)))
	}

	// numerator = sqrtPriceX96^2 * 10^(scale + d1 - d0); the scale term keeps
	// the subsequent truncating division from destroying precision. The
	// exponent is always >= 0 because decimals are bounded by the scale.
	exp := priceScaleDigits + int(decimals1) - int(decimals0)
	numer := new(big.Int).Mul(state.SqrtPriceX96, state.SqrtPriceX96)
	numer.Mul(numer, pow10(exp))

	quot := numer.Quo(numer, q192)
	if quot.Sign() == 0 {
		return decimal.Zero, apperror.New(apperror.CodePrecisionOverflow,
			apperror.WithContext("price underflows representable range"))
	}

	return decimal.NewFromBigInt(quot, -priceScaleDigits), nil
}

// pow10 returns 10^n for n >= 0.
func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
