// Package ethereum provides Ethereum chain infrastructure adapters.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
	"github.com/dkrasnove/arbengine/internal/ratelimit"
)

const (
	tracerName = "github.com/dkrasnove/arbengine/business/chain/infra/ethereum"
	meterName  = "github.com/dkrasnove/arbengine/business/chain/infra/ethereum"
)

// gasBufferPercent is the safety margin added on top of the node's own
// gas estimate.
const gasBufferPercent = 10

// ClientConfig holds configuration for the chain client.
type ClientConfig struct {
	HTTPURL   string  // Ethereum RPC endpoint
	ChainID   uint64  // Expected chain id, verified on connect
	RateLimit float64 // RPC requests per second, 0 disables limiting
}

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	rpcCalls     metric.Int64Counter
	rpcErrors    metric.Int64Counter
	gasEstimates metric.Int64Counter
}

// Client wraps an Ethereum JSON-RPC connection. It verifies the chain id on
// connect, rate-limits outgoing calls, and adds a safety buffer to gas
// estimates.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface

	eth      *ethclient.Client
	clientMu sync.RWMutex

	limiter *ratelimit.Limiter

	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient creates a new chain client. Call Connect before use.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if cfg.RateLimit > 0 {
		c.limiter = ratelimit.New(cfg.RateLimit)
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return c, nil
}

// initMetrics initializes OTEL metric instruments.
func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.rpcCalls, err = meter.Int64Counter(
		"chain_rpc_calls_total",
		metric.WithDescription("Total RPC calls issued"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	c.metrics.rpcErrors, err = meter.Int64Counter(
		"chain_rpc_errors_total",
		metric.WithDescription("Total RPC call failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	c.metrics.gasEstimates, err = meter.Int64Counter(
		"chain_gas_estimates_total",
		metric.WithDescription("Total gas estimation calls"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Connect establishes the RPC connection and verifies the chain id.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "chain.connect",
		trace.WithAttributes(attribute.String("url", c.config.HTTPURL)),
	)
	defer span.End()

	eth, err := ethclient.DialContext(ctx, c.config.HTTPURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("failed to dial rpc endpoint"))
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain id fetch failed")
		return apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch chain id"))
	}

	if c.config.ChainID != 0 && chainID.Uint64() != c.config.ChainID {
		eth.Close()
		err := apperror.New(apperror.CodeChainIDMismatch,
			apperror.WithContext(fmt.Sprintf("expected chain %d, node reports %s",
				c.config.ChainID, chainID)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain id mismatch")
		return err
	}

	c.clientMu.Lock()
	c.eth = eth
	c.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	c.logger.Info(ctx, "chain client connected",
		"url", c.config.HTTPURL, "chain_id", chainID.Uint64())

	return nil
}

// ValidateAddress checks hex format and, for mixed-case input, the EIP-55
// checksum. All-lowercase and all-uppercase addresses are accepted as
// unchecksummed.
func ValidateAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, apperror.New(apperror.CodeInvalidAddress,
			apperror.WithContext(fmt.Sprintf("not a hex address: %q", address)))
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	mixedCase := hex != strings.ToLower(hex) && hex != strings.ToUpper(hex)
	if mixedCase {
		checksummed := common.HexToAddress(address).Hex()
		if checksummed[2:] != hex {
			return common.Address{}, apperror.New(apperror.CodeInvalidAddress,
				apperror.WithContext(fmt.Sprintf("checksum mismatch: %q", address)))
		}
	}

	return common.HexToAddress(address), nil
}

// client returns the underlying connection or an error when not connected.
func (c *Client) client() (*ethclient.Client, error) {
	c.clientMu.RLock()
	defer c.clientMu.RUnlock()

	if c.eth == nil {
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithContext("chain client not connected"))
	}
	return c.eth, nil
}

// wait applies the outgoing rate limit.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("rate limiter wait aborted"))
	}
	return nil
}

// CallContract executes a read-only contract call at the given block.
// A nil block number means latest.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "chain.call_contract")
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	data, err := eth.CallContract(ctx, msg, blockNumber)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(ClassifyError(err),
			apperror.WithCause(err),
			apperror.WithContext("contract call failed"))
	}

	span.SetStatus(codes.Ok, "called")
	return data, nil
}

// EstimateGas asks the node for a gas estimate and adds the safety buffer.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	ctx, span := c.tracer.Start(ctx, "chain.estimate_gas",
		trace.WithAttributes(attribute.Int("data_len", len(msg.Data))),
	)
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return 0, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)
	c.metrics.gasEstimates.Add(ctx, 1)

	gas, err := eth.EstimateGas(ctx, msg)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, apperror.New(apperror.CodeEstimationError,
			apperror.WithCause(err),
			apperror.WithContext("gas estimation failed"))
	}

	gas = WithGasBuffer(gas)

	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	span.SetStatus(codes.Ok, "estimated")

	return gas, nil
}

// WithGasBuffer adds the fixed safety margin to a raw node estimate.
func WithGasBuffer(gas uint64) uint64 {
	return gas + gas*gasBufferPercent/100
}

// SuggestGasPrice fetches the node's suggested gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, span := c.tracer.Start(ctx, "chain.suggest_gas_price")
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	price, err := eth.SuggestGasPrice(ctx)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(ClassifyError(err),
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch gas price"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

// NonceAt returns the account's transaction count including mempool
// entries, so a restart with in-flight transactions does not reuse nonces.
func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	ctx, span := c.tracer.Start(ctx, "chain.nonce_at",
		trace.WithAttributes(attribute.String("account", account.Hex())),
	)
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return 0, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	nonce, err := eth.PendingNonceAt(ctx, account)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return 0, apperror.New(ClassifyError(err),
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch account nonce"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return nonce, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, span := c.tracer.Start(ctx, "chain.send_transaction",
		trace.WithAttributes(attribute.String("hash", tx.Hash().Hex())),
	)
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	if err := eth.SendTransaction(ctx, tx); err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return apperror.New(apperror.CodeSubmissionError,
			apperror.WithCause(err),
			apperror.WithContext("transaction submission failed"))
	}

	span.SetStatus(codes.Ok, "submitted")
	return nil
}

// TransactionReceipt fetches the receipt for a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "chain.transaction_receipt",
		trace.WithAttributes(attribute.String("hash", hash.Hex())),
	)
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	receipt, err := eth.TransactionReceipt(ctx, hash)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		return nil, apperror.New(ClassifyError(err),
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch receipt"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return receipt, nil
}

// LatestHeader fetches the most recent block header.
func (c *Client) LatestHeader(ctx context.Context) (*domain.Block, error) {
	ctx, span := c.tracer.Start(ctx, "chain.latest_header")
	defer span.End()

	eth, err := c.client()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.metrics.rpcCalls.Add(ctx, 1)

	header, err := eth.HeaderByNumber(ctx, nil)
	if err != nil {
		c.metrics.rpcErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch latest header"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return headerToBlock(header), nil
}

// headerToBlock converts an Ethereum header to a domain Block.
func headerToBlock(header *types.Header) *domain.Block {
	return &domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		GasLimit:   header.GasLimit,
		GasUsed:    header.GasUsed,
		BaseFee:    header.BaseFee,
	}
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).SetUint64(c.config.ChainID)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
	return nil
}
