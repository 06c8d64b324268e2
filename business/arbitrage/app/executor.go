package app

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/arbitrage/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

const (
	tracerName = "github.com/dkrasnove/arbengine/business/arbitrage/app"
	meterName  = "github.com/dkrasnove/arbengine/business/arbitrage/app"
)

// bpsDenominator converts basis points to fractions.
const bpsDenominator = 10_000

// ExecutorConfig is the immutable execution snapshot read at startup.
type ExecutorConfig struct {
	GasLimit           uint64
	MaxGasPrice        *big.Int      // absolute ceiling in wei
	GasEscalationBps   int64         // escalation per pending tx, default 1000 (= +10%)
	MaxSlippageBps     int64         // worst acceptable output shortfall for derived minimums
	DeadlineWindow     time.Duration // swap deadline past the latest block timestamp
	RetryAttempts      int
	RetryDelay         time.Duration
	ConfirmationBlocks uint64        // depth at which a receipt counts as final
	ConfirmTimeout     time.Duration // budget for one confirmation wait
}

// TradeRequest describes one swap to execute.
type TradeRequest struct {
	Venue        string
	Router       common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Path         []common.Address
}

// executorMetrics holds OTEL metric instruments.
type executorMetrics struct {
	tradesAttempted metric.Int64Counter
	tradesSubmitted metric.Int64Counter
	tradesFailed    metric.Int64Counter
	pendingCount    metric.Int64Gauge
	submitLatency   metric.Float64Histogram
}

// ExecutionManager turns validated opportunities into signed, submitted,
// tracked transactions. One instance exclusively owns its signing key and
// nonce counter; two instances must never share an account.
type ExecutionManager struct {
	config     ExecutorConfig
	backend    TxBackend
	gasPricer  GasPricer
	allocation AllocationProvider
	logger     logger.LoggerInterface

	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer

	// mu covers read-nonce, sign, submit, record-pending as one critical
	// section. Splitting it lets a slow submission be overtaken by a faster
	// one holding a higher nonce, stalling the account.
	mu          sync.Mutex
	initialized bool
	nextNonce   uint64
	pending     map[common.Hash]*domain.PendingTransaction

	tracer  trace.Tracer
	metrics *executorMetrics
}

// NewExecutionManager creates an execution manager for one signing key.
// Call Initialize before ExecuteTrade.
func NewExecutionManager(cfg ExecutorConfig, backend TxBackend, gasPricer GasPricer, allocation AllocationProvider, key *ecdsa.PrivateKey, chainID *big.Int, log logger.LoggerInterface) (*ExecutionManager, error) {
	if key == nil {
		return nil, apperror.New(apperror.CodeRequiredField,
			apperror.WithContext("signing key is required"))
	}
	if cfg.MaxGasPrice == nil || cfg.MaxGasPrice.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("max gas price must be positive"))
	}

	m := &ExecutionManager{
		config:     cfg,
		backend:    backend,
		gasPricer:  gasPricer,
		allocation: allocation,
		logger:     log,
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		signer:     types.LatestSignerForChainID(chainID),
		pending:    make(map[common.Hash]*domain.PendingTransaction),
		tracer:     otel.Tracer(tracerName),
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return m, nil
}

// initMetrics initializes OTEL metric instruments.
func (m *ExecutionManager) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &executorMetrics{}

	m.metrics.tradesAttempted, err = meter.Int64Counter(
		"trades_attempted_total",
		metric.WithDescription("Total trade execution attempts"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return err
	}

	m.metrics.tradesSubmitted, err = meter.Int64Counter(
		"trades_submitted_total",
		metric.WithDescription("Total trades submitted on-chain"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return err
	}

	m.metrics.tradesFailed, err = meter.Int64Counter(
		"trades_failed_total",
		metric.WithDescription("Total trade executions that failed"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return err
	}

	m.metrics.pendingCount, err = meter.Int64Gauge(
		"pending_transactions",
		metric.WithDescription("Transactions submitted but not yet confirmed"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	m.metrics.submitLatency, err = meter.Float64Histogram(
		"trade_submit_latency_ms",
		metric.WithDescription("Latency of the sign-and-submit critical section"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Address returns the signing account.
func (m *ExecutionManager) Address() common.Address {
	return m.address
}

// Initialize fetches the account's nonce baseline. Must be called once
// before any ExecuteTrade.
func (m *ExecutionManager) Initialize(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "execution.initialize",
		trace.WithAttributes(attribute.String("account", m.address.Hex())),
	)
	defer span.End()

	nonce, err := m.backend.NonceAt(ctx, m.address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "nonce fetch failed")
		return err
	}

	block, err := m.backend.LatestHeader(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "header fetch failed")
		return err
	}

	m.mu.Lock()
	m.nextNonce = nonce
	m.initialized = true
	m.mu.Unlock()

	m.logger.Info(ctx, "execution manager initialized",
		"account", m.address.Hex(),
		"nonce", nonce,
		"block", block.Number)

	span.SetAttributes(attribute.Int64("nonce", int64(nonce)))
	span.SetStatus(codes.Ok, "initialized")
	return nil
}

// ExecuteTrade builds, signs, submits, and records one swap. It returns a
// non-nil error only for the NotInitialized ordering violation; every other
// failure is logged with its cause and surfaces as (nil, nil) so a scanning
// loop never crashes on an expected outcome.
func (m *ExecutionManager) ExecuteTrade(ctx context.Context, req TradeRequest) (*common.Hash, error) {
	ctx, span := m.tracer.Start(ctx, "execution.execute_trade",
		trace.WithAttributes(
			attribute.String("venue", req.Venue),
			attribute.String("token_in", req.TokenIn.Hex()),
			attribute.String("token_out", req.TokenOut.Hex()),
		),
	)
	defer span.End()

	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()

	if !initialized {
		err := apperror.New(apperror.CodeNotInitialized,
			apperror.WithContext("ExecuteTrade called before Initialize"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "not initialized")
		return nil, err
	}

	m.metrics.tradesAttempted.Add(ctx, 1)

	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 || len(req.Path) < 2 {
		m.failTrade(ctx, span, req, nil, "malformed trade request")
		return nil, nil
	}

	// Allocation gate. Exceeding the cap is an expected outcome under tight
	// allocations, not an error.
	allocation, err := m.allocation.GetAllocation(ctx, req.Venue)
	if err != nil {
		m.failTrade(ctx, span, req, err, "allocation lookup failed")
		return nil, nil
	}
	if allocation == nil || req.AmountIn.Cmp(allocation) > 0 {
		span.AddEvent("allocation_exceeded")
		m.logger.Info(ctx, "trade exceeds venue allocation, skipping",
			"venue", req.Venue,
			"amount_in", req.AmountIn.String(),
			"allocation", bigString(allocation))
		return nil, nil
	}

	gasPrice, err := m.OptimalGasPrice(ctx)
	if err != nil {
		m.failTrade(ctx, span, req, err, "gas price computation failed")
		return nil, nil
	}

	block, err := m.backend.LatestHeader(ctx)
	if err != nil {
		m.failTrade(ctx, span, req, err, "latest block fetch failed")
		return nil, nil
	}
	deadline := big.NewInt(block.Timestamp.Add(m.config.DeadlineWindow).Unix())

	calldata, err := BuildSwapCalldata(req.AmountIn, req.MinAmountOut, req.Path, m.address, deadline)
	if err != nil {
		m.failTrade(ctx, span, req, err, "calldata encoding failed")
		return nil, nil
	}

	hash, err := m.submitWithRetry(ctx, req, calldata, gasPrice)
	if err != nil {
		m.failTrade(ctx, span, req, err, "submission failed")
		return nil, nil
	}

	m.metrics.tradesSubmitted.Add(ctx, 1)

	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "submitted")
	return hash, nil
}

// ExecuteOpportunity drives a validated opportunity through its lifecycle:
// Ready -> Executing, then Executed on a submitted hash or Failed otherwise.
// A request without an explicit output floor gets one derived from the
// opportunity's expected output and the slippage tolerance.
func (m *ExecutionManager) ExecuteOpportunity(ctx context.Context, opp *domain.Opportunity, req TradeRequest) (*common.Hash, error) {
	if req.MinAmountOut == nil && opp.AmountOut != nil {
		req.MinAmountOut = m.MinAmountOut(opp.AmountOut)
	}

	if err := opp.TransitionTo(domain.StatusExecuting); err != nil {
		m.logger.Warn(ctx, "opportunity not executable",
			"id", opp.ID, "status", string(opp.Status()), "error", err)
		return nil, nil
	}

	hash, err := m.ExecuteTrade(ctx, req)
	if err != nil {
		// NotInitialized: the ordering violation propagates.
		_ = opp.TransitionTo(domain.StatusFailed)
		return nil, err
	}

	if hash == nil {
		_ = opp.TransitionTo(domain.StatusFailed)
		return nil, nil
	}

	_ = opp.TransitionTo(domain.StatusExecuted)
	return hash, nil
}

// submitWithRetry retries transient submission failures. Each attempt runs
// the full critical section; a failed attempt leaves the nonce counter
// untouched, so no gap can form.
func (m *ExecutionManager) submitWithRetry(ctx context.Context, req TradeRequest, calldata []byte, gasPrice *big.Int) (*common.Hash, error) {
	attempts := m.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		hash, err := m.submitOnce(ctx, req, calldata, gasPrice)
		if err == nil {
			return hash, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == attempts {
			break
		}

		m.logger.Warn(ctx, "transient submission failure, retrying",
			"attempt", attempt,
			"venue", req.Venue,
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.config.RetryDelay):
		}
	}

	return nil, lastErr
}

// submitOnce performs the critical section: read nonce, sign, submit, and
// record pending as one unit. The nonce advances only after a successful
// submission.
func (m *ExecutionManager) submitOnce(ctx context.Context, req TradeRequest, calldata []byte, gasPrice *big.Int) (*common.Hash, error) {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	nonce := m.nextNonce

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.Router,
		Value:    big.NewInt(0),
		Gas:      m.config.GasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signedTx, err := types.SignTx(tx, m.signer, m.key)
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningError,
			apperror.WithCause(err),
			apperror.WithContext("failed to sign transaction"))
	}

	if err := m.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, err
	}

	m.nextNonce++

	hash := signedTx.Hash()
	m.pending[hash] = &domain.PendingTransaction{
		Hash:        hash,
		Nonce:       nonce,
		GasPrice:    new(big.Int).Set(gasPrice),
		SubmittedAt: time.Now(),
	}

	m.metrics.pendingCount.Record(ctx, int64(len(m.pending)))
	m.metrics.submitLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	m.logger.Info(ctx, "transaction submitted",
		"hash", hash.Hex(),
		"nonce", nonce,
		"gas_price", gasPrice.String(),
		"venue", req.Venue)

	return &hash, nil
}

// OptimalGasPrice escalates the base gas price by the configured fraction
// per in-flight transaction, clamped to the ceiling. The escalation models
// this process's own urgency, not network-wide congestion.
func (m *ExecutionManager) OptimalGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := m.gasPricer.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	pending := len(m.pending)
	m.mu.Unlock()

	return m.escalate(price.Wei, pending), nil
}

// escalate computes base * (1 + escalation * pending), clamped to the max.
func (m *ExecutionManager) escalate(base *big.Int, pendingCount int) *big.Int {
	factor := big.NewInt(bpsDenominator + m.config.GasEscalationBps*int64(pendingCount))
	escalated := new(big.Int).Mul(base, factor)
	escalated.Quo(escalated, big.NewInt(bpsDenominator))

	if escalated.Cmp(m.config.MaxGasPrice) > 0 {
		return new(big.Int).Set(m.config.MaxGasPrice)
	}
	return escalated
}

// MinAmountOut applies the slippage tolerance to an expected output:
// expected * (1 - maxSlippage). A non-positive tolerance keeps the expected
// amount as the floor.
func (m *ExecutionManager) MinAmountOut(expected *big.Int) *big.Int {
	bps := m.config.MaxSlippageBps
	if bps <= 0 {
		return new(big.Int).Set(expected)
	}
	if bps > bpsDenominator {
		bps = bpsDenominator
	}

	out := new(big.Int).Mul(expected, big.NewInt(bpsDenominator-bps))
	return out.Quo(out, big.NewInt(bpsDenominator))
}

// WaitForConfirmation polls for the transaction's receipt until it is buried
// under the configured number of blocks or the confirmation budget runs out.
// It reports the on-chain success flag and releases the pending entry once
// the transaction is final.
func (m *ExecutionManager) WaitForConfirmation(ctx context.Context, hash common.Hash) (bool, error) {
	ctx, span := m.tracer.Start(ctx, "execution.wait_for_confirmation",
		trace.WithAttributes(attribute.String("hash", hash.Hex())),
	)
	defer span.End()

	timeout := m.config.ConfirmTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Receipts land once per block; polling shares the retry cadence.
	poll := m.config.RetryDelay
	if poll <= 0 {
		poll = time.Second
	}

	depth := m.config.ConfirmationBlocks
	if depth == 0 {
		depth = 1
	}

	for {
		if success, final := m.checkReceipt(ctx, hash, depth); final {
			span.SetAttributes(attribute.Bool("success", success))
			span.SetStatus(codes.Ok, "confirmed")
			return success, nil
		}

		select {
		case <-ctx.Done():
			err := apperror.New(apperror.CodeServiceTimeout,
				apperror.WithCause(ctx.Err()),
				apperror.WithContext(fmt.Sprintf("transaction %s not confirmed within %s", hash.Hex(), timeout)))
			span.RecordError(err)
			span.SetStatus(codes.Error, "confirmation timed out")
			return false, err
		case <-time.After(poll):
		}
	}
}

// checkReceipt reports whether the transaction is final at the given depth
// and, if so, whether it succeeded. Lookup failures count as not-yet-mined;
// the surrounding deadline bounds how long they can be retried.
func (m *ExecutionManager) checkReceipt(ctx context.Context, hash common.Hash, depth uint64) (success, final bool) {
	receipt, err := m.backend.TransactionReceipt(ctx, hash)
	if err != nil || receipt == nil {
		return false, false
	}

	head, err := m.backend.LatestHeader(ctx)
	if err != nil {
		m.logger.Debug(ctx, "head fetch failed during confirmation wait",
			"hash", hash.Hex(), "error", err)
		return false, false
	}

	minedAt := receipt.BlockNumber.Uint64()
	if head.Number < minedAt+depth-1 {
		return false, false
	}

	m.ConfirmTransaction(ctx, hash)
	return receipt.Status == types.ReceiptStatusSuccessful, true
}

// PendingCount returns the number of tracked in-flight transactions.
func (m *ExecutionManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// PendingTransactions returns a snapshot of the in-flight transactions.
func (m *ExecutionManager) PendingTransactions() []domain.PendingTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.PendingTransaction, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, *p)
	}
	return out
}

// ConfirmTransaction removes a confirmed transaction from tracking.
func (m *ExecutionManager) ConfirmTransaction(ctx context.Context, hash common.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[hash]; !ok {
		return false
	}

	delete(m.pending, hash)
	m.metrics.pendingCount.Record(ctx, int64(len(m.pending)))

	m.logger.Info(ctx, "transaction confirmed", "hash", hash.Hex())
	return true
}

// ExpirePending drops tracked transactions older than maxAge and returns
// their hashes. A dropped entry does not resync the nonce; a transaction
// that missed its deadline still consumed its nonce on-chain or will be
// replaced by the caller with a new assignment.
func (m *ExecutionManager) ExpirePending(ctx context.Context, maxAge time.Duration) []common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []common.Hash
	for hash, p := range m.pending {
		if p.Age() > maxAge {
			expired = append(expired, hash)
			delete(m.pending, hash)
		}
	}

	if len(expired) > 0 {
		m.metrics.pendingCount.Record(ctx, int64(len(m.pending)))
		m.logger.Warn(ctx, "expired pending transactions",
			"count", len(expired), "max_age", maxAge)
	}

	return expired
}

// failTrade logs a failed execution with enough context to reconstruct the
// decision and records the failure metric.
func (m *ExecutionManager) failTrade(ctx context.Context, span trace.Span, req TradeRequest, err error, msg string) {
	m.metrics.tradesFailed.Add(ctx, 1)

	if err != nil {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, msg)

	m.logger.Error(ctx, "trade execution failed",
		"reason", msg,
		"venue", req.Venue,
		"token_in", req.TokenIn.Hex(),
		"token_out", req.TokenOut.Hex(),
		"amount_in", bigString(req.AmountIn),
		"error", err)
}

// isTransient reports whether a submission failure is worth retrying.
func isTransient(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodeConnectionError, apperror.CodeServiceTimeout, apperror.CodeRateLimitExceeded:
		return true
	default:
		return false
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
