package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/cache"
	"github.com/dkrasnove/arbengine/internal/circuitbreaker"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration // How long to cache gas prices
	MaxGasPrice *big.Int      // Ceiling applied to node suggestions
	DefaultGas  uint64        // Fallback gas limit when estimation fails
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas := new(big.Int)
	maxGas.SetString("500000000000", 10) // 500 gwei

	return GasOracleConfig{
		CacheTTL:    12 * time.Second, // ~1 block
		MaxGasPrice: maxGas,
		DefaultGas:  200000,
	}
}

// gasOracleMetrics holds OTEL metric instruments.
type gasOracleMetrics struct {
	fetches      metric.Int64Counter
	gasPriceGwei metric.Float64Gauge
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

// GasOracle serves cached, clamped gas prices on top of the chain client.
type GasOracle struct {
	config GasOracleConfig
	client *Client
	logger logger.LoggerInterface

	priceCache *cache.Cache[string, *domain.GasPrice]

	cb *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a new gas oracle over a connected chain client.
func NewGasOracle(cfg GasOracleConfig, client *Client, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		client:     client,
		logger:     log,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	g.cb = circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle"))

	return g, nil
}

// initMetrics initializes OTEL metric instruments.
func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetGasPrice retrieves the current gas price with caching.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	if price, found := g.priceCache.Get(ctx, "current"); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.cacheMisses.Add(ctx, 1)
	g.metrics.fetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		span.AddEvent("gas_price_exceeded_max",
			trace.WithAttributes(attribute.String("wei", wei.String())))
		g.logger.Warn(ctx, "gas price exceeds max, clamping", "wei", wei.String())
		wei = new(big.Int).Set(g.config.MaxGasPrice)
	}

	price := domain.NewGasPrice(wei)

	g.priceCache.Set(ctx, "current", price, g.config.CacheTTL)
	g.metrics.gasPriceGwei.Record(ctx, price.Gwei())

	span.SetAttributes(attribute.Float64("gwei", price.Gwei()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// EstimateGas estimates the gas needed for a call, including the safety
// buffer applied by the chain client.
func (g *GasOracle) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	ctx, span := g.tracer.Start(ctx, "gas.estimate",
		trace.WithAttributes(
			attribute.String("to", to.Hex()),
			attribute.Int("data_len", len(data)),
		),
	)
	defer span.End()

	gas, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	span.SetStatus(codes.Ok, "estimated")

	return gas, nil
}

// GetGasEstimate returns a full gas estimate including price. When
// estimation fails the configured default gas limit is used instead.
func (g *GasOracle) GetGasEstimate(ctx context.Context, from, to common.Address, data []byte) (*domain.GasEstimate, error) {
	ctx, span := g.tracer.Start(ctx, "gas.full_estimate")
	defer span.End()

	gasPrice, err := g.GetGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	gasLimit, err := g.EstimateGas(ctx, from, to, data)
	if err != nil {
		gasLimit = g.config.DefaultGas
		span.AddEvent("using_default_gas", trace.WithAttributes(
			attribute.Int64("default", int64(gasLimit))))
	}

	estimate := domain.NewGasEstimate(gasLimit, gasPrice)

	span.SetAttributes(
		attribute.Int64("gas_limit", int64(estimate.GasLimit)),
		attribute.Float64("total_gwei", estimate.TotalGwei()),
	)
	span.SetStatus(codes.Ok, "estimated")

	return estimate, nil
}

// Close releases oracle resources.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	return nil
}
