package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dkrasnove/arbengine/business/arbitrage/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

type fakeSpotOracle struct {
	spot  decimal.Decimal
	err   error
	calls int
}

func (o *fakeSpotOracle) SpotUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	o.calls++
	if o.err != nil {
		return decimal.Zero, o.err
	}
	return o.spot, nil
}

func testPlanner(t *testing.T, oracle *fakeSpotOracle, gas *fakeGasPricer) *Planner {
	t.Helper()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	p, err := NewPlanner(oracle, gas, 300_000, log)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	return p
}

func TestNewPlanner_Validation(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	oracle := &fakeSpotOracle{spot: decimal.NewFromInt(2000)}
	gas := &fakeGasPricer{wei: big.NewInt(1)}

	if _, err := NewPlanner(nil, gas, 300_000, log); err == nil {
		t.Error("expected error for nil oracle")
	}
	if _, err := NewPlanner(oracle, nil, 300_000, log); err == nil {
		t.Error("expected error for nil gas pricer")
	}
	if _, err := NewPlanner(oracle, gas, 0, log); err == nil {
		t.Error("expected error for zero gas limit")
	}
}

func TestGasCostUSD(t *testing.T) {
	// 300k gas at 50 gwei is 0.015 ETH; at $2000 per ETH that is $30.
	oracle := &fakeSpotOracle{spot: decimal.NewFromInt(2000)}
	p := testPlanner(t, oracle, &fakeGasPricer{wei: big.NewInt(50_000_000_000)})

	cost, err := p.GasCostUSD(context.Background())
	if err != nil {
		t.Fatalf("GasCostUSD: %v", err)
	}
	if want := decimal.NewFromInt(30); !cost.Equal(want) {
		t.Errorf("gas cost = %s, want %s", cost, want)
	}
	if oracle.calls != 1 {
		t.Errorf("oracle called %d times, want 1", oracle.calls)
	}
}

func TestGasCostUSD_ErrorsPropagate(t *testing.T) {
	t.Run("oracle_failure", func(t *testing.T) {
		oracle := &fakeSpotOracle{err: apperror.New(apperror.CodeQuoteFailed)}
		p := testPlanner(t, oracle, &fakeGasPricer{wei: big.NewInt(1)})

		_, err := p.GasCostUSD(context.Background())
		if !apperror.IsCode(err, apperror.CodeQuoteFailed) {
			t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeQuoteFailed)
		}
	})

	t.Run("gas_price_failure", func(t *testing.T) {
		oracle := &fakeSpotOracle{spot: decimal.NewFromInt(2000)}
		p := testPlanner(t, oracle, &fakeGasPricer{err: apperror.New(apperror.CodeConnectionError)})

		_, err := p.GasCostUSD(context.Background())
		if !apperror.IsCode(err, apperror.CodeConnectionError) {
			t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeConnectionError)
		}
		if oracle.calls != 0 {
			t.Error("oracle must not be consulted when the gas price is unavailable")
		}
	})
}

func TestBuildOpportunity(t *testing.T) {
	oracle := &fakeSpotOracle{spot: decimal.NewFromInt(2000)}
	p := testPlanner(t, oracle, &fakeGasPricer{wei: big.NewInt(50_000_000_000)})

	opp, err := p.BuildOpportunity(context.Background(), Proposal{
		ID:          "opp-1",
		SourceVenue: "uniswap_v2",
		DestVenue:   "uniswap_v3",
		TokenPath:   []common.Address{testTokenIn, testTokenOut},
		AmountIn:    big.NewInt(1_000_000),
		AmountOut:   big.NewInt(1_001_000),
		ProfitUSD:   decimal.NewFromInt(42),
		PriceImpact: decimal.RequireFromString("0.001"),
	})
	if err != nil {
		t.Fatalf("BuildOpportunity: %v", err)
	}

	if opp.Status() != domain.StatusReady {
		t.Errorf("status = %s, want %s", opp.Status(), domain.StatusReady)
	}
	if want := decimal.NewFromInt(30); !opp.GasCostUSD.Equal(want) {
		t.Errorf("gas cost = %s, want %s", opp.GasCostUSD, want)
	}
	if want := decimal.NewFromInt(12); !opp.NetProfit().Equal(want) {
		t.Errorf("net profit = %s, want %s", opp.NetProfit(), want)
	}
}

func TestBuildOpportunity_InvalidProposal(t *testing.T) {
	oracle := &fakeSpotOracle{spot: decimal.NewFromInt(2000)}
	p := testPlanner(t, oracle, &fakeGasPricer{wei: big.NewInt(1)})

	_, err := p.BuildOpportunity(context.Background(), Proposal{
		ID:        "opp-1",
		TokenPath: []common.Address{testTokenIn},
		AmountIn:  big.NewInt(1),
	})
	if !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidInput)
	}
}
