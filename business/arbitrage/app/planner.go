package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/arbitrage/domain"
	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// nativeSymbol is the asset gas is paid in.
const nativeSymbol = "ETH"

// nativeDecimals converts wei amounts to whole native units.
const nativeDecimals = 18

// Proposal carries the trade-specific inputs for building an opportunity.
// The gas leg is filled in by the planner.
type Proposal struct {
	ID          string
	SourceVenue string
	DestVenue   string
	TokenPath   []common.Address
	AmountIn    *big.Int
	AmountOut   *big.Int
	ProfitUSD   decimal.Decimal
	PriceImpact decimal.Decimal
}

// Planner prices the gas leg of candidate trades in USD and assembles
// opportunities from proposals. It sits between discovery and execution:
// net profit is only meaningful once gas is in the same currency as profit.
type Planner struct {
	oracle    SpotOracle
	gasPricer GasPricer
	gasLimit  uint64
	logger    logger.LoggerInterface

	tracer trace.Tracer
}

// NewPlanner creates a planner over the given spot oracle and gas pricer.
func NewPlanner(oracle SpotOracle, gasPricer GasPricer, gasLimit uint64, log logger.LoggerInterface) (*Planner, error) {
	if oracle == nil {
		return nil, apperror.New(apperror.CodeRequiredField,
			apperror.WithContext("spot oracle is required"))
	}
	if gasPricer == nil {
		return nil, apperror.New(apperror.CodeRequiredField,
			apperror.WithContext("gas pricer is required"))
	}
	if gasLimit == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("gas limit must be non-zero"))
	}

	return &Planner{
		oracle:    oracle,
		gasPricer: gasPricer,
		gasLimit:  gasLimit,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// GasCostUSD prices one swap's worth of gas at the current gas price and the
// native asset's USD spot.
func (p *Planner) GasCostUSD(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "planner.gas_cost_usd")
	defer span.End()

	price, err := p.gasPricer.GetGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas price fetch failed")
		return decimal.Zero, err
	}

	spot, err := p.oracle.SpotUSD(ctx, nativeSymbol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "spot fetch failed")
		return decimal.Zero, err
	}

	estimate := chaindomain.NewGasEstimate(p.gasLimit, price)
	native := decimal.NewFromBigInt(estimate.TotalWei(), -nativeDecimals)
	cost := native.Mul(spot)

	span.SetAttributes(attribute.String("gas_cost_usd", cost.String()))
	span.SetStatus(codes.Ok, "priced")
	return cost, nil
}

// BuildOpportunity assembles a Ready opportunity from a proposal, pricing the
// gas leg so net profit compares like for like.
func (p *Planner) BuildOpportunity(ctx context.Context, prop Proposal) (*domain.Opportunity, error) {
	gasCost, err := p.GasCostUSD(ctx)
	if err != nil {
		return nil, err
	}

	opp, err := domain.NewOpportunity(prop.ID, prop.SourceVenue, prop.DestVenue,
		prop.TokenPath, prop.AmountIn, prop.AmountOut,
		prop.ProfitUSD, gasCost, prop.PriceImpact)
	if err != nil {
		return nil, err
	}

	p.logger.Debug(ctx, "opportunity built",
		"id", opp.ID,
		"profit_usd", opp.ProfitUSD.String(),
		"gas_cost_usd", opp.GasCostUSD.String(),
		"net_profit_usd", opp.NetProfit().String())

	return opp, nil
}
