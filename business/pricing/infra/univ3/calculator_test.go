package univ3

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
)

// bigPow10 returns 10^n as a big.Int.
func bigPow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// makeState builds a pool at price 1.0 with deep in-range liquidity.
func makeState(liquidity *big.Int) *domain.PoolState {
	return &domain.PoolState{
		Venue:        domain.VenueUniswapV3,
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    liquidity,
	}
}

func TestCalculateAmounts_InvalidInputs(t *testing.T) {
	calc := NewCalculator(3000)
	deep := bigPow10(24)

	tests := []struct {
		name     string
		state    *domain.PoolState
		amountIn *big.Int
		wantErr  apperror.Code
	}{
		{
			name:     "nil_state",
			state:    nil,
			amountIn: big.NewInt(1000),
			wantErr:  apperror.CodeInvalidInput,
		},
		{
			name:     "missing_sqrt_price",
			state:    &domain.PoolState{Liquidity: deep},
			amountIn: big.NewInt(1000),
			wantErr:  apperror.CodeInvalidInput,
		},
		{
			name:     "no_liquidity",
			state:    &domain.PoolState{SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96)},
			amountIn: big.NewInt(1000),
			wantErr:  apperror.CodeInsufficientLiquidity,
		},
		{
			name:     "zero_amount_in",
			state:    makeState(deep),
			amountIn: big.NewInt(0),
			wantErr:  apperror.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.CalculateAmounts(tt.state, tt.amountIn, domain.ZeroForOne)
			if !apperror.IsCode(err, tt.wantErr) {
				t.Errorf("error code = %s, want %s", apperror.GetCode(err), tt.wantErr)
			}
		})
	}
}

// At unit price with deep liquidity, a small exact-in swap returns slightly
// less than the input: the fee comes off first, then a hair of slippage.
func TestCalculateAmounts_NearUnitPrice(t *testing.T) {
	calc := NewCalculator(3000) // 0.30%
	state := makeState(bigPow10(24))
	amountIn := bigPow10(18)

	for _, direction := range []domain.Direction{domain.ZeroForOne, domain.OneForZero} {
		quote, err := calc.CalculateAmounts(state, amountIn, direction)
		if err != nil {
			t.Fatalf("%s: %v", direction, err)
		}

		// Out must be below in (fee) but above in minus 1%.
		if quote.AmountOut.Cmp(amountIn) >= 0 {
			t.Errorf("%s: amount out %s not reduced by fee", direction, quote.AmountOut)
		}
		floor := new(big.Int).Mul(amountIn, big.NewInt(99))
		floor.Quo(floor, big.NewInt(100))
		if quote.AmountOut.Cmp(floor) < 0 {
			t.Errorf("%s: amount out %s below 99%% of input, slippage too large for deep pool", direction, quote.AmountOut)
		}

		if quote.PriceImpact.IsNegative() || quote.PriceImpact.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			t.Errorf("%s: price impact %s outside [0,1)", direction, quote.PriceImpact)
		}
	}
}

// Selling token0 must push the sqrt price down; buying it must push it up.
func TestSqrtPriceNext_Direction(t *testing.T) {
	sqrtP := new(big.Int).Lsh(big.NewInt(1), 96)
	liquidity := bigPow10(24)
	amountIn := bigPow10(20)

	down := sqrtPriceNextZeroForOne(sqrtP, liquidity, amountIn)
	if down.Cmp(sqrtP) >= 0 {
		t.Errorf("zeroForOne sqrt price %s did not fall below %s", down, sqrtP)
	}

	up := sqrtPriceNextOneForZero(sqrtP, liquidity, amountIn)
	if up.Cmp(sqrtP) <= 0 {
		t.Errorf("oneForZero sqrt price %s did not rise above %s", up, sqrtP)
	}
}

// A larger trade against the same liquidity produces strictly more impact
// and strictly worse marginal output.
func TestCalculateAmounts_ImpactGrowsWithSize(t *testing.T) {
	calc := NewCalculator(3000)
	state := makeState(bigPow10(24))

	prevImpact := decimal.Zero
	for _, exp := range []int64{18, 19, 20, 21} {
		quote, err := calc.CalculateAmounts(state, bigPow10(exp), domain.ZeroForOne)
		if err != nil {
			t.Fatalf("10^%d: %v", exp, err)
		}
		if !quote.PriceImpact.GreaterThan(prevImpact) {
			t.Fatalf("impact %s at 10^%d not above %s", quote.PriceImpact, exp, prevImpact)
		}
		prevImpact = quote.PriceImpact
	}
}

// Higher fee tiers return strictly less output for the same trade.
func TestCalculateAmounts_FeeTiers(t *testing.T) {
	state := makeState(bigPow10(24))
	amountIn := bigPow10(18)

	var prevOut *big.Int
	for _, feePips := range []uint32{100, 500, 3000, 10000} {
		quote, err := NewCalculator(feePips).CalculateAmounts(state, amountIn, domain.ZeroForOne)
		if err != nil {
			t.Fatalf("fee %d: %v", feePips, err)
		}
		if prevOut != nil && quote.AmountOut.Cmp(prevOut) >= 0 {
			t.Fatalf("fee %d output %s not below lower tier's %s", feePips, quote.AmountOut, prevOut)
		}
		prevOut = quote.AmountOut
	}
}
