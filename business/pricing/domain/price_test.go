package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/internal/apperror"
)

// q96 sqrt price of exactly 1.0 (sqrtPriceX96 = 2^96).
var sqrtPriceOne = new(big.Int).Lsh(big.NewInt(1), 96)

func makeState(sqrtPrice *big.Int) *PoolState {
	return &PoolState{
		Venue:        VenueUniswapV3,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    big.NewInt(1_000_000),
		ReadAt:       time.Now(),
	}
}

func TestPriceFromState(t *testing.T) {
	tests := []struct {
		name      string
		sqrtPrice *big.Int
		decimals0 uint8
		decimals1 uint8
		want      string
		wantErr   apperror.Code
	}{
		{
			name:      "unit_price_equal_decimals",
			sqrtPrice: sqrtPriceOne,
			decimals0: 18,
			decimals1: 18,
			want:      "1",
		},
		{
			name:      "double_sqrt_quadruples_price",
			sqrtPrice: new(big.Int).Lsh(big.NewInt(1), 97), // 2 * 2^96
			decimals0: 18,
			decimals1: 18,
			want:      "4",
		},
		{
			name:      "decimal_adjustment_usdc_weth",
			sqrtPrice: sqrtPriceOne,
			decimals0: 6,
			decimals1: 18,
			want:      "1000000000000", // 10^(18-6)
		},
		{
			name:      "decimal_adjustment_reversed",
			sqrtPrice: sqrtPriceOne,
			decimals0: 18,
			decimals1: 6,
			want:      "0.000000000001", // 10^(6-18)
		},
		{
			name:      "nil_sqrt_price",
			sqrtPrice: nil,
			decimals0: 18,
			decimals1: 18,
			wantErr:   apperror.CodePrecisionOverflow,
		},
		{
			name:      "zero_sqrt_price",
			sqrtPrice: big.NewInt(0),
			decimals0: 18,
			decimals1: 18,
			wantErr:   apperror.CodePrecisionOverflow,
		},
		{
			name:      "negative_sqrt_price",
			sqrtPrice: big.NewInt(-1),
			decimals0: 18,
			decimals1: 18,
			wantErr:   apperror.CodePrecisionOverflow,
		},
		{
			name:      "decimals_out_of_range",
			sqrtPrice: sqrtPriceOne,
			decimals0: 39,
			decimals1: 18,
			wantErr:   apperror.CodePrecisionOverflow,
		},
		{
			name:      "price_underflow",
			sqrtPrice: big.NewInt(1), // (1/2^96)^2 vanishes below the scale
			decimals0: 18,
			decimals1: 18,
			wantErr:   apperror.CodePrecisionOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceFromState(makeState(tt.sqrtPrice), tt.decimals0, tt.decimals1)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %s, got price %s", tt.wantErr, got)
				}
				if code := apperror.GetCode(err); code != tt.wantErr {
					t.Fatalf("error code = %s, want %s", code, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("price = %s, want %s", got, want)
			}
		})
	}
}

func TestPriceFromState_NilState(t *testing.T) {
	_, err := PriceFromState(nil, 18, 18)
	if apperror.GetCode(err) != apperror.CodePrecisionOverflow {
		t.Fatalf("expected precision overflow for nil state, got %v", err)
	}
}

// Price must be strictly monotonic in sqrtPriceX96.
func TestPriceFromState_Monotonic(t *testing.T) {
	prev := decimal.Zero
	for i := int64(1); i <= 8; i++ {
		sqrtPrice := new(big.Int).Mul(sqrtPriceOne, big.NewInt(i))
		got, err := PriceFromState(makeState(sqrtPrice), 18, 18)
		if err != nil {
			t.Fatalf("sqrtPrice x%d: %v", i, err)
		}
		if !got.GreaterThan(prev) {
			t.Fatalf("price not monotonic: %s -> %s at multiple %d", prev, got, i)
		}
		prev = got
	}
}

// Swapping the decimals arguments must produce reciprocal decimal
// adjustments around the same raw sqrt price.
func TestPriceFromState_DecimalReciprocity(t *testing.T) {
	state := makeState(sqrtPriceOne)

	a, err := PriceFromState(state, 6, 18)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PriceFromState(state, 18, 6)
	if err != nil {
		t.Fatal(err)
	}

	product := a.Mul(b)
	if !product.Equal(decimal.NewFromInt(1)) {
		t.Errorf("adjustments not reciprocal: %s * %s = %s", a, b, product)
	}
}

func TestValidateLiquidity(t *testing.T) {
	tests := []struct {
		name  string
		state *PoolState
		min   *big.Int
		want  bool
	}{
		{
			name:  "nil_state",
			state: nil,
			want:  false,
		},
		{
			name:  "nil_liquidity",
			state: &PoolState{Liquidity: nil},
			want:  false,
		},
		{
			name:  "zero_liquidity",
			state: &PoolState{Liquidity: big.NewInt(0)},
			want:  false,
		},
		{
			name:  "positive_liquidity_no_min",
			state: &PoolState{Liquidity: big.NewInt(1)},
			want:  true,
		},
		{
			name:  "below_min",
			state: &PoolState{Liquidity: big.NewInt(999)},
			min:   big.NewInt(1000),
			want:  false,
		},
		{
			name:  "at_min",
			state: &PoolState{Liquidity: big.NewInt(1000)},
			min:   big.NewInt(1000),
			want:  true,
		},
		{
			name:  "above_min",
			state: &PoolState{Liquidity: big.NewInt(1001)},
			min:   big.NewInt(1000),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateLiquidity(tt.state, tt.min); got != tt.want {
				t.Errorf("ValidateLiquidity() = %v, want %v", got, tt.want)
			}
		})
	}
}
