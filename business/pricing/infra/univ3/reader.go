package univ3

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

const tracerName = "github.com/dkrasnove/arbengine/business/pricing/infra/univ3"

// BatchCaller executes batched read calls.
type BatchCaller interface {
	BatchCall(ctx context.Context, calls []chaindomain.Call, blockNumber *big.Int) ([]chaindomain.CallResult, error)
}

// Reader reads concentrated-liquidity pool state. The pool exposes price and
// liquidity through separate accessors, so both reads go out in one
// multicall batch to land on the same block.
type Reader struct {
	batcher BatchCaller
	poolABI abi.ABI
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewReader creates a concentrated-liquidity state reader.
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
	return domain.VenueUniswapV3
}

// ReadState fetches slot0 and liquidity in one batch and maps them onto the
// canonical state.
func (r *Reader) ReadState(ctx context.Context, handle *chaindomain.ContractHandle) (*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "univ3.read_state",
		trace.WithAttributes(attribute.String("pool", handle.Address.Hex())),
	)
	defer span.End()

	slot0Input, err := r.poolABI.Pack("slot0")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode slot0"))
	}

	liqInput, err := r.poolABI.Pack("liquidity")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode liquidity"))
	}

	results, err := r.batcher.BatchCall(ctx, []chaindomain.Call{
		{Target: handle.Address, CallData: slot0Input},
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

	slot0Values, err := r.poolABI.Unpack("slot0", results[0].ReturnData)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode slot0"))
	}

	liqValues, err := r.poolABI.Unpack("liquidity", results[1].ReturnData)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode liquidity"))
	}

	sqrtPrice := slot0Values[0].(*big.Int)
	tick := slot0Values[1].(*big.Int)
	liquidity := liqValues[0].(*big.Int)

	state := &domain.PoolState{
		Venue:        domain.VenueUniswapV3,
		SqrtPriceX96: sqrtPrice,
		Tick:         int32(tick.Int64()),
		Liquidity:    liquidity,
		ReadAt:       time.Now(),
	}

	span.SetAttributes(attribute.Int64("tick", tick.Int64()))
	span.SetStatus(codes.Ok, "read")
	return state, nil
}
