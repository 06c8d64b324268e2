package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/asset"
	"github.com/dkrasnove/arbengine/internal/logger"
)

type stubReader struct {
	venue domain.Venue
	state *domain.PoolState
	err   error
	reads int
}

func (r *stubReader) Venue() domain.Venue { return r.venue }

func (r *stubReader) ReadState(ctx context.Context, handle *chaindomain.ContractHandle) (*domain.PoolState, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.state, nil
}

type stubCalculator struct {
	quote *domain.AmountQuote
	err   error
}

func (c *stubCalculator) CalculateAmounts(state *domain.PoolState, amountIn *big.Int, direction domain.Direction) (*domain.AmountQuote, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.quote, nil
}

func testHandle() *chaindomain.ContractHandle {
	return &chaindomain.ContractHandle{
		Address:       common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"),
		InterfaceName: "pair",
	}
}

func goodState(venue domain.Venue) *domain.PoolState {
	return &domain.PoolState{
		Venue:        venue,
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    big.NewInt(1_000_000),
	}
}

func newService(t *testing.T, readers []PoolReader, calculators map[domain.Venue]AmountCalculator) *PricingService {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	svc, err := NewPricingService(readers, calculators, asset.DefaultRegistry(), asset.ChainIDEthereum, false, log)
	if err != nil {
		t.Fatalf("NewPricingService: %v", err)
	}
	return svc
}

func TestGetPoolState(t *testing.T) {
	reader := &stubReader{venue: domain.VenueUniswapV2, state: goodState(domain.VenueUniswapV2)}
	svc := newService(t, []PoolReader{reader}, nil)
	ctx := context.Background()

	state, err := svc.GetPoolState(ctx, testHandle(), domain.VenueUniswapV2)
	if err != nil {
		t.Fatalf("GetPoolState: %v", err)
	}
	if state.Venue != domain.VenueUniswapV2 {
		t.Errorf("venue = %s", state.Venue)
	}
	if reader.reads != 1 {
		t.Errorf("reader called %d times, want 1", reader.reads)
	}
}

func TestGetPoolState_UnsupportedVenue(t *testing.T) {
	reader := &stubReader{venue: domain.VenueUniswapV2, state: goodState(domain.VenueUniswapV2)}
	svc := newService(t, []PoolReader{reader}, nil)

	_, err := svc.GetPoolState(context.Background(), testHandle(), domain.VenueAlgebra)
	if !apperror.IsCode(err, apperror.CodeUnsupportedVenue) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeUnsupportedVenue)
	}
	if reader.reads != 0 {
		t.Error("unsupported venue must fail before any read")
	}
}

func TestGetPoolState_ZeroSqrtPriceIsStale(t *testing.T) {
	state := goodState(domain.VenueUniswapV3)
	state.SqrtPriceX96 = big.NewInt(0)
	reader := &stubReader{venue: domain.VenueUniswapV3, state: state}
	svc := newService(t, []PoolReader{reader}, nil)

	_, err := svc.GetPoolState(context.Background(), testHandle(), domain.VenueUniswapV3)
	if !apperror.IsCode(err, apperror.CodeStaleRead) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeStaleRead)
	}
}

func TestGetPoolState_ReaderErrorPropagates(t *testing.T) {
	reader := &stubReader{
		venue: domain.VenueUniswapV3,
		err:   apperror.New(apperror.CodeBatchCallError),
	}
	svc := newService(t, []PoolReader{reader}, nil)

	_, err := svc.GetPoolState(context.Background(), testHandle(), domain.VenueUniswapV3)
	if !apperror.IsCode(err, apperror.CodeBatchCallError) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeBatchCallError)
	}
}

// A unit sqrt price quotes at exactly 10^(decimals1-decimals0), so the
// registry's decimals are directly visible in the result.
func TestPoolPrice_ResolvesDecimalsFromRegistry(t *testing.T) {
	reader := &stubReader{venue: domain.VenueUniswapV3, state: goodState(domain.VenueUniswapV3)}
	svc := newService(t, []PoolReader{reader}, nil)
	ctx := context.Background()

	// WETH (18 decimals) against USDC (6 decimals).
	price, err := svc.PoolPrice(ctx, testHandle(), domain.VenueUniswapV3, asset.AddrWETHEthereum, asset.AddrUSDCEthereum)
	if err != nil {
		t.Fatalf("PoolPrice: %v", err)
	}
	if want := decimal.RequireFromString("0.000000000001"); !price.Equal(want) {
		t.Errorf("price = %s, want %s", price, want)
	}
}

func TestPoolPrice_UnknownTokenFallsBackTo18(t *testing.T) {
	reader := &stubReader{venue: domain.VenueUniswapV3, state: goodState(domain.VenueUniswapV3)}
	svc := newService(t, []PoolReader{reader}, nil)

	unknown := common.HexToAddress("0x1111111111111111111111111111111111111111")
	price, err := svc.PoolPrice(context.Background(), testHandle(), domain.VenueUniswapV3, asset.AddrWETHEthereum, unknown)
	if err != nil {
		t.Fatalf("PoolPrice: %v", err)
	}
	if want := decimal.NewFromInt(1); !price.Equal(want) {
		t.Errorf("price = %s, want %s", price, want)
	}
}

func TestPoolPrice_ReadErrorPropagates(t *testing.T) {
	reader := &stubReader{venue: domain.VenueUniswapV2, err: apperror.New(apperror.CodeBatchCallError)}
	svc := newService(t, []PoolReader{reader}, nil)

	_, err := svc.PoolPrice(context.Background(), testHandle(), domain.VenueUniswapV2, asset.AddrWETHEthereum, asset.AddrUSDCEthereum)
	if !apperror.IsCode(err, apperror.CodeBatchCallError) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeBatchCallError)
	}
}

func TestCalculateAmounts_Dispatch(t *testing.T) {
	quote := &domain.AmountQuote{AmountOut: big.NewInt(990), PriceImpact: decimal.RequireFromString("0.001")}
	svc := newService(t, nil, map[domain.Venue]AmountCalculator{
		domain.VenueUniswapV2: &stubCalculator{quote: quote},
	})
	ctx := context.Background()

	got, err := svc.CalculateAmounts(ctx, goodState(domain.VenueUniswapV2), big.NewInt(1000), domain.ZeroForOne)
	if err != nil {
		t.Fatalf("CalculateAmounts: %v", err)
	}
	if got != quote {
		t.Error("quote not passed through")
	}

	// Venue without a calculator: capability is absent, not degraded.
	_, err = svc.CalculateAmounts(ctx, goodState(domain.VenueAlgebra), big.NewInt(1000), domain.ZeroForOne)
	if !apperror.IsCode(err, apperror.CodeUnsupportedOperation) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeUnsupportedOperation)
	}
}
