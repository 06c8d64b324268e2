package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// Multicall3 aggregate3, deployed at the same address on most EVM chains.
const multicall3ABI = `[{"inputs":[{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bool","name":"allowFailure","type":"bool"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call3[]","name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

type multicall3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type multicall3Result struct {
	Success    bool
	ReturnData []byte
}

var (
	multicallABI     abi.ABI
	multicallABIOnce sync.Once
)

func mustMulticallABI() abi.ABI {
	multicallABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
		if err != nil {
			panic("multicall abi: " + err.Error())
		}
		multicallABI = parsed
	})
	return multicallABI
}

// Multicaller batches read calls through an on-chain aggregator so one RPC
// round-trip serves many contract reads.
type Multicaller struct {
	address common.Address
	client  *Client
	logger  logger.LoggerInterface
	abi     abi.ABI
	tracer  trace.Tracer
}

// NewMulticaller creates a multicaller against the aggregator at address.
func NewMulticaller(address common.Address, client *Client, log logger.LoggerInterface) *Multicaller {
	return &Multicaller{
		address: address,
		client:  client,
		logger:  log,
		abi:     mustMulticallABI(),
		tracer:  otel.Tracer(tracerName),
	}
}

// BatchCall executes all calls in one aggregator invocation at the given
// block and returns one result per call in input order. A nil block number
// targets latest; with latest, results are only atomic per invocation, not
// across repeated invocations while the chain advances.
func (m *Multicaller) BatchCall(ctx context.Context, calls []domain.Call, blockNumber *big.Int) ([]domain.CallResult, error) {
	ctx, span := m.tracer.Start(ctx, "chain.batch_call",
		trace.WithAttributes(attribute.Int("calls", len(calls))),
	)
	defer span.End()

	if len(calls) == 0 {
		return nil, nil
	}

	packed := make([]multicall3Call, len(calls))
	for i, call := range calls {
		packed[i] = multicall3Call{
			Target:       call.Target,
			AllowFailure: call.AllowFailure,
			CallData:     call.CallData,
		}
	}

	input, err := m.abi.Pack("aggregate3", packed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pack failed")
		return nil, apperror.New(apperror.CodeBatchCallError,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode multicall input"))
	}

	msg := ethereum.CallMsg{
		To:   &m.address,
		Data: input,
	}

	output, err := m.client.CallContract(ctx, msg, blockNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(apperror.CodeBatchCallError,
			apperror.WithCause(err),
			apperror.WithContext("multicall aggregator call failed"))
	}

	results, err := m.unpackResults(output)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unpack failed")
		return nil, err
	}

	if len(results) != len(calls) {
		err := apperror.New(apperror.CodeBatchCallError,
			apperror.WithContext(fmt.Sprintf("aggregator returned %d results for %d calls",
				len(results), len(calls))))
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "batched")
	return results, nil
}

func (m *Multicaller) unpackResults(output []byte) ([]domain.CallResult, error) {
	unpacked, err := m.abi.Unpack("aggregate3", output)
	if err != nil {
		return nil, apperror.New(apperror.CodeBatchCallError,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode multicall output"))
	}

	raw := *abi.ConvertType(unpacked[0], new([]multicall3Result)).(*[]multicall3Result)

	results := make([]domain.CallResult, len(raw))
	for i, r := range raw {
		results[i] = domain.CallResult{
			Success:    r.Success,
			ReturnData: r.ReturnData,
		}
	}
	return results, nil
}
