// Package algebra implements pool reading for Algebra-style dynamic-fee pools.
package algebra

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

const tracerName = "github.com/dkrasnove/arbengine/business/pricing/infra/algebra"

// Minimal pool ABI: combined price/tick accessor plus liquidity.
const PoolABI = `[{"inputs":[],"name":"globalState","outputs":[{"internalType":"uint160","name":"price","type":"uint160"},{"internalType":"int24","name":"tick","type":"int24"},{"internalType":"uint16","name":"fee","type":"uint16"},{"internalType":"uint16","name":"timepointIndex","type":"uint16"},{"internalType":"uint8","name":"communityFeeToken0","type":"uint8"},{"internalType":"uint8","name":"communityFeeToken1","type":"uint8"},{"internalType":"bool","name":"unlocked","type":"bool"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"liquidity","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"}]`

// BatchCaller executes batched read calls.
type BatchCaller interface {
	BatchCall(ctx context.Context, calls []chaindomain.Call, blockNumber *big.Int) ([]chaindomain.CallResult, error)
}

// Reader reads Algebra pool state. Algebra packs price, tick, and the
// current dynamic fee into a single globalState accessor.
type Reader struct {
	batcher BatchCaller
	poolABI abi.ABI
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewReader creates an Algebra state reader.
func NewReader(batcher BatchCaller, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, err
	}

	return &Reader{
		batcher: batcher,
		poolABI: parsed,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Venue returns the variant this reader serves.
func (r *Reader) Venue() domain.Venue {
	return domain.VenueAlgebra
}

// ReadState fetches globalState and liquidity in one batch.
func (r *Reader) ReadState(ctx context.Context, handle *chaindomain.ContractHandle) (*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "algebra.read_state",
		trace.WithAttributes(attribute.String("pool", handle.Address.Hex())),
	)
	defer span.End()

	stateInput, err := r.poolABI.Pack("globalState")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode globalState"))
	}

	liqInput, err := r.poolABI.Pack("liquidity")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode liquidity"))
	}

	results, err := r.batcher.BatchCall(ctx, []chaindomain.Call{
		{Target: handle.Address, CallData: stateInput},
		{Target: handle.Address, CallData: liqInput},
	}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return nil, err
	}

	for _, res := range results {
		if !res.Success {
			err := apperror.New(apperror.CodeContractCallFailed,
				apperror.WithContext("pool state accessor reverted"))
			span.RecordError(err)
			span.SetStatus(codes.Error, "accessor reverted")
			return nil, err
		}
	}

	stateValues, err := r.poolABI.Unpack("globalState", results[0].ReturnData)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode globalState"))
	}

	liqValues, err := r.poolABI.Unpack("liquidity", results[1].ReturnData)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode liquidity"))
	}

	price := stateValues[0].(*big.Int)
	tick := stateValues[1].(*big.Int)
	liquidity := liqValues[0].(*big.Int)

	state := &domain.PoolState{
		Venue:        domain.VenueAlgebra,
		SqrtPriceX96: price,
		Tick:         int32(tick.Int64()),
		Liquidity:    liquidity,
		ReadAt:       time.Now(),
	}

	span.SetAttributes(attribute.Int64("tick", tick.Int64()))
	span.SetStatus(codes.Ok, "read")
	return state, nil
}
