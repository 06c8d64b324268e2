// Package coinbase implements the reference USD oracle against the Coinbase
// spot price API.
package coinbase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/cache"
	"github.com/dkrasnove/arbengine/internal/circuitbreaker"
	"github.com/dkrasnove/arbengine/internal/httpclient"
	"github.com/dkrasnove/arbengine/internal/logger"
)

const (
	tracerName = "github.com/dkrasnove/arbengine/business/pricing/infra/coinbase"

	defaultBaseURL = "https://api.coinbase.com"
	spotCacheTTL   = 15 * time.Second
)

// spotResponse is the Coinbase v2 spot price payload.
type spotResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Provider fetches USD spot prices with caching and a circuit breaker.
type Provider struct {
	client httpclient.Client
	logger logger.LoggerInterface

	spotCache *cache.Cache[string, decimal.Decimal]
	cb        *circuitbreaker.CircuitBreaker[decimal.Decimal]

	tracer trace.Tracer
}

// NewProvider creates a Coinbase spot price provider. An empty baseURL uses
// the public API endpoint.
func NewProvider(baseURL string, log logger.LoggerInterface) (*Provider, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coinbase"),
		httpclient.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Provider{
		client:    client,
		logger:    log,
		spotCache: cache.New[string, decimal.Decimal](time.Minute),
		cb:        circuitbreaker.New[decimal.Decimal](circuitbreaker.DefaultConfig("coinbase-spot")),
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// SpotUSD returns the current USD spot price for a symbol such as "ETH".
func (p *Provider) SpotUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "coinbase.spot_usd",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	if price, found := p.spotCache.Get(ctx, symbol); found {
		span.AddEvent("cache_hit")
		return price, nil
	}

	price, err := p.cb.Execute(func() (decimal.Decimal, error) {
		return p.fetchSpot(ctx, symbol)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return decimal.Zero, err
	}

	p.spotCache.Set(ctx, symbol, price, spotCacheTTL)

	span.SetAttributes(attribute.String("price", price.String()))
	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

func (p *Provider) fetchSpot(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var result spotResponse

	resp, err := p.client.NewRequest().
		SetResult(&result).
		Get(ctx, fmt.Sprintf("/v2/prices/%s-USD/spot", symbol))
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("coinbase spot request failed"))
	}

	if resp.IsError() {
		return decimal.Zero, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext(fmt.Sprintf("coinbase spot returned status %d", resp.StatusCode)))
	}

	price, err := decimal.NewFromString(result.Data.Amount)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("unparsable spot amount %q", result.Data.Amount)))
	}

	if price.Sign() <= 0 {
		return decimal.Zero, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext("coinbase spot price is non-positive"))
	}

	return price, nil
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.spotCache.Close()
	return nil
}
