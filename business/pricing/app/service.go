// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

const (
	tracerName = "github.com/dkrasnove/arbengine/business/pricing/app"
	meterName  = "github.com/dkrasnove/arbengine/business/pricing/app"
)

// serviceMetrics holds OTEL metric instruments.
type serviceMetrics struct {
	stateReads metric.Int64Counter
	readErrors metric.Int64Counter
	staleReads metric.Int64Counter
}

// PricingService dispatches pool reads and amount math to the registered
// venue variants. It holds no mutable pool state; the optional per-handle
// lock only serializes reads when the underlying transport is not reentrant.
type PricingService struct {
	readers     map[domain.Venue]PoolReader
	calculators map[domain.Venue]AmountCalculator
	decimals    DecimalsSource
	chainID     uint64
	logger      logger.LoggerInterface

	// serializeReads is a transport property, not a pricing invariant.
	serializeReads bool
	handleLocks    sync.Map // common.Address -> *sync.Mutex

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewPricingService creates a pricing service over the given venue variants.
// The decimals source normalizes token amounts for price quoting; a nil
// source makes PoolPrice fall back to 18 for every token.
func NewPricingService(readers []PoolReader, calculators map[domain.Venue]AmountCalculator, decimals DecimalsSource, chainID uint64, serializeReads bool, log logger.LoggerInterface) (*PricingService, error) {
	byVenue := make(map[domain.Venue]PoolReader, len(readers))
	for _, r := range readers {
		byVenue[r.Venue()] = r
	}

	s := &PricingService{
		readers:        byVenue,
		calculators:    calculators,
		decimals:       decimals,
		chainID:        chainID,
		logger:         log,
		serializeReads: serializeReads,
		tracer:         otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

// initMetrics initializes OTEL metric instruments.
func (s *PricingService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.stateReads, err = meter.Int64Counter(
		"pool_state_reads_total",
		metric.WithDescription("Total pool state reads"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return err
	}

	s.metrics.readErrors, err = meter.Int64Counter(
		"pool_state_read_errors_total",
		metric.WithDescription("Total pool state read failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.staleReads, err = meter.Int64Counter(
		"pool_state_stale_reads_total",
		metric.WithDescription("Pool states rejected as stale"),
		metric.WithUnit("{read}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetPoolState reads the canonical pool state for the given venue.
func (s *PricingService) GetPoolState(ctx context.Context, handle *chaindomain.ContractHandle, venue domain.Venue) (*domain.PoolState, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.get_pool_state",
		trace.WithAttributes(
			attribute.String("venue", venue.String()),
			attribute.String("pool", handle.Address.Hex()),
		),
	)
	defer span.End()

	reader, ok := s.readers[venue]
	if !ok {
		err := apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(fmt.Sprintf("no reader registered for venue %s", venue)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported venue")
		return nil, err
	}

	s.metrics.stateReads.Add(ctx, 1)

	if s.serializeReads {
		mu := s.handleLock(handle)
		mu.Lock()
		defer mu.Unlock()
	}

	state, err := reader.ReadState(ctx, handle)
	if err != nil {
		s.metrics.readErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}

	// A venue that encodes price as sqrtPriceX96 must never report zero; a
	// zero here means the node served a stale or uninitialized slot.
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		s.metrics.staleReads.Add(ctx, 1)
		err := apperror.New(apperror.CodeStaleRead,
			apperror.WithContext(fmt.Sprintf("pool %s returned zero sqrt price", handle.Address.Hex())))
		span.RecordError(err)
		span.SetStatus(codes.Error, "stale read")
		return nil, err
	}

	span.SetStatus(codes.Ok, "read")
	return state, nil
}

// PriceFromState converts a pool state into a decimal price.
func (s *PricingService) PriceFromState(state *domain.PoolState, decimals0, decimals1 uint8) (decimal.Decimal, error) {
	return domain.PriceFromState(state, decimals0, decimals1)
}

// PoolPrice reads the pool state and converts it into a token1-per-token0
// price, resolving both tokens' decimals through the registry. Unregistered
// tokens price at the 18-decimal default.
func (s *PricingService) PoolPrice(ctx context.Context, handle *chaindomain.ContractHandle, venue domain.Venue, token0, token1 common.Address) (decimal.Decimal, error) {
	state, err := s.GetPoolState(ctx, handle, venue)
	if err != nil {
		return decimal.Zero, err
	}

	decimals0, known0 := s.tokenDecimals(token0)
	decimals1, known1 := s.tokenDecimals(token1)
	if !known0 || !known1 {
		s.logger.Debug(ctx, "pricing pool with unregistered token decimals",
			"pool", handle.Address.Hex(),
			"token0_known", known0,
			"token1_known", known1)
	}

	return domain.PriceFromState(state, decimals0, decimals1)
}

func (s *PricingService) tokenDecimals(addr common.Address) (uint8, bool) {
	if s.decimals == nil {
		return 18, false
	}
	return s.decimals.Decimals(s.chainID, addr)
}

// ValidateLiquidity reports whether the state meets the liquidity floor.
func (s *PricingService) ValidateLiquidity(state *domain.PoolState, min *big.Int) bool {
	return domain.ValidateLiquidity(state, min)
}

// CalculateAmounts dispatches the amount math to the venue's calculator.
func (s *PricingService) CalculateAmounts(ctx context.Context, state *domain.PoolState, amountIn *big.Int, direction domain.Direction) (*domain.AmountQuote, error) {
	calc, ok := s.calculators[state.Venue]
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedOperation,
			apperror.WithContext(fmt.Sprintf("no amount calculator for venue %s", state.Venue)))
	}

	quote, err := calc.CalculateAmounts(state, amountIn, direction)
	if err != nil {
		s.logger.Debug(ctx, "amount calculation failed",
			"venue", state.Venue.String(),
			"direction", direction.String(),
			"amount_in", amountIn.String(),
			"error", err)
		return nil, err
	}
	return quote, nil
}

func (s *PricingService) handleLock(handle *chaindomain.ContractHandle) *sync.Mutex {
	v, _ := s.handleLocks.LoadOrStore(handle.Address, &sync.Mutex{})
	return v.(*sync.Mutex)
}
