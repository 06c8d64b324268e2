package ethereum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/circuitbreaker"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// SubscriberConfig holds configuration for the block subscriber.
type SubscriberConfig struct {
	WSURL          string        // WebSocket endpoint (primary)
	HTTPURL        string        // HTTP endpoint (fallback)
	PollInterval   time.Duration // Polling interval for HTTP fallback
	ReconnectDelay time.Duration // Delay before reconnecting WS
	BufferSize     int           // Block channel buffer size
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig(wsURL, httpURL string) SubscriberConfig {
	return SubscriberConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		PollInterval:   12 * time.Second, // ~1 block time
		ReconnectDelay: 5 * time.Second,
		BufferSize:     16,
	}
}

// subscriberMetrics holds OTEL metric instruments.
type subscriberMetrics struct {
	blocksReceived  metric.Int64Counter
	subscribeErrors metric.Int64Counter
	httpFallbacks   metric.Int64Counter
}

// Subscriber delivers new block headers, preferring a WebSocket subscription
// and falling back to HTTP polling when the socket is unavailable.
type Subscriber struct {
	config SubscriberConfig
	logger logger.LoggerInterface

	wsClient   *ethclient.Client
	httpClient *ethclient.Client
	clientMu   sync.RWMutex

	state      domain.ConnectionState
	stateMu    sync.RWMutex
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	reconnects atomic.Int32

	blocks  chan *domain.Block
	done    chan struct{}
	closeMu sync.Mutex
	closed  atomic.Bool

	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber creates a new block subscriber.
func NewSubscriber(cfg SubscriberConfig, log logger.LoggerInterface) (*Subscriber, error) {
	s := &Subscriber{
		config: cfg,
		logger: log,
		state:  domain.StateDisconnected,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("block-poll")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.httpCB = circuitbreaker.New[*types.Header](cbCfg)

	return s, nil
}

// initMetrics initializes OTEL metric instruments.
func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("Total blocks received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Total subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallbacks, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Times HTTP fallback was used"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Subscribe starts listening for new blocks and returns the block channel.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.subscribe")
	defer span.End()

	if s.closed.Load() {
		err := errors.New("subscriber is closed")
		span.RecordError(err)
		return nil, err
	}

	s.setState(domain.StateConnecting)

	if err := s.connectWS(ctx); err != nil {
		s.logger.Warn(ctx, "ws connection failed, trying http fallback", "error", err)
		span.AddEvent("ws_failed_trying_http")

		if err := s.connectHTTP(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "both connections failed")
			s.setState(domain.StateDisconnected)
			return nil, apperror.New(apperror.CodeConnectionError,
				apperror.WithCause(err),
				apperror.WithContext("failed to connect via ws and http"))
		}

		s.usingHTTP.Store(true)
		s.metrics.httpFallbacks.Add(ctx, 1)
		go s.runHTTPPoller(ctx)
	} else {
		go s.runWSSubscription(ctx)
	}

	s.setState(domain.StateConnected)
	span.SetStatus(codes.Ok, "subscribed")

	return s.blocks, nil
}

func (s *Subscriber) connectWS(ctx context.Context) error {
	if s.config.WSURL == "" {
		return errors.New("ws url not configured")
	}

	client, err := ethclient.DialContext(ctx, s.config.WSURL)
	if err != nil {
		return fmt.Errorf("dial ws: %w", err)
	}

	s.clientMu.Lock()
	s.wsClient = client
	s.clientMu.Unlock()

	return nil
}

func (s *Subscriber) connectHTTP(ctx context.Context) error {
	if s.config.HTTPURL == "" {
		return errors.New("http url not configured")
	}

	client, err := ethclient.DialContext(ctx, s.config.HTTPURL)
	if err != nil {
		return fmt.Errorf("dial http: %w", err)
	}

	s.clientMu.Lock()
	s.httpClient = client
	s.clientMu.Unlock()

	return nil
}

// runWSSubscription runs the WebSocket subscription loop.
func (s *Subscriber) runWSSubscription(ctx context.Context) {
	headers := make(chan *types.Header, s.config.BufferSize)

	s.clientMu.RLock()
	client := s.wsClient
	s.clientMu.RUnlock()

	if client == nil {
		s.handleWSDisconnect(ctx)
		return
	}

	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		s.logger.Error(ctx, "subscribe new head failed", "error", err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.handleWSDisconnect(ctx)
		return
	}

	s.logger.Info(ctx, "subscribed to new heads via ws")

	for {
		select {
		case <-s.done:
			sub.Unsubscribe()
			return
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case err := <-sub.Err():
			if err != nil {
				s.logger.Error(ctx, "subscription error", "error", err)
				s.metrics.subscribeErrors.Add(ctx, 1)
			}
			sub.Unsubscribe()
			s.handleWSDisconnect(ctx)
			return
		case header := <-headers:
			if header == nil {
				continue
			}
			s.emitHeader(ctx, header)
		}
	}
}

// handleWSDisconnect retries the socket, then falls back to polling.
func (s *Subscriber) handleWSDisconnect(ctx context.Context) {
	if s.closed.Load() {
		return
	}

	s.setState(domain.StateReconnecting)
	s.reconnects.Add(1)

	time.Sleep(s.config.ReconnectDelay)

	if s.closed.Load() {
		return
	}

	if err := s.connectWS(ctx); err != nil {
		s.logger.Warn(ctx, "ws reconnect failed, switching to http", "error", err)

		s.clientMu.RLock()
		haveHTTP := s.httpClient != nil
		s.clientMu.RUnlock()

		if !haveHTTP {
			if err := s.connectHTTP(ctx); err != nil {
				s.logger.Error(ctx, "http fallback connection failed", "error", err)
				s.setState(domain.StateDisconnected)
				return
			}
		}

		s.usingHTTP.Store(true)
		s.metrics.httpFallbacks.Add(ctx, 1)
		s.setState(domain.StateConnected)
		go s.runHTTPPoller(ctx)
		return
	}

	s.usingHTTP.Store(false)
	s.setState(domain.StateConnected)
	go s.runWSSubscription(ctx)
}

// runHTTPPoller runs the HTTP polling loop as fallback.
func (s *Subscriber) runHTTPPoller(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.Info(ctx, "starting http polling fallback", "interval", s.config.PollInterval)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollLatestBlock(ctx)
		}
	}
}

func (s *Subscriber) pollLatestBlock(ctx context.Context) {
	s.clientMu.RLock()
	client := s.httpClient
	s.clientMu.RUnlock()

	if client == nil {
		return
	}

	header, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil) // nil = latest
	})
	if err != nil {
		s.logger.Error(ctx, "http poll failed", "error", err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		return
	}

	if header.Number.Uint64() <= s.lastBlock.Load() {
		return
	}

	s.emitHeader(ctx, header)
}

// emitHeader converts a header and pushes it to the block channel without
// blocking the receive loop.
func (s *Subscriber) emitHeader(ctx context.Context, header *types.Header) {
	block := headerToBlock(header)

	s.lastBlock.Store(block.Number)

	select {
	case s.blocks <- block:
		s.metrics.blocksReceived.Add(ctx, 1)
		s.logger.Debug(ctx, "block received",
			"number", block.Number,
			"hash", block.Hash.Hex()[:10])
	default:
		s.logger.Warn(ctx, "block dropped, buffer full", "number", block.Number)
	}
}

// LatestBlock retrieves the most recent block from whichever client is live.
func (s *Subscriber) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	s.clientMu.RLock()
	wsClient := s.wsClient
	httpClient := s.httpClient
	s.clientMu.RUnlock()

	client := httpClient
	if wsClient != nil && !s.usingHTTP.Load() {
		client = wsClient
	}

	if client == nil {
		err := apperror.New(apperror.CodeConnectionError,
			apperror.WithContext("no client connected"))
		span.RecordError(err)
		return nil, err
	}

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch latest block"))
	}

	span.SetAttributes(attribute.Int64("number", header.Number.Int64()))
	span.SetStatus(codes.Ok, "fetched")
	return headerToBlock(header), nil
}

// State returns the current connection state.
func (s *Subscriber) State() domain.ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Status returns detailed connection status.
func (s *Subscriber) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:      s.State(),
		LastBlock:  s.lastBlock.Load(),
		LastUpdate: time.Now(),
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.usingHTTP.Load(),
	}
}

// BlockNumber returns the number of the last received block.
func (s *Subscriber) BlockNumber() uint64 {
	return s.lastBlock.Load()
}

// Close gracefully closes the subscriber.
func (s *Subscriber) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed.Load() {
		return nil
	}

	s.logger.Info(context.Background(), "closing block subscriber")

	s.closed.Store(true)
	close(s.done)

	s.clientMu.Lock()
	if s.wsClient != nil {
		s.wsClient.Close()
		s.wsClient = nil
	}
	if s.httpClient != nil {
		s.httpClient.Close()
		s.httpClient = nil
	}
	s.clientMu.Unlock()

	close(s.blocks)
	s.setState(domain.StateDisconnected)

	return nil
}

func (s *Subscriber) setState(state domain.ConnectionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}
