package univ2

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
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

const tracerName = "github.com/dkrasnove/arbengine/business/pricing/infra/univ2"

// ContractCaller executes read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// Reader reads constant-product pair state and maps it onto the canonical
// sqrt-price form.
type Reader struct {
	caller  ContractCaller
	pairABI abi.ABI
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewReader creates a pair state reader.
func NewReader(caller ContractCaller, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, err
	}

	return &Reader{
		caller:  caller,
		pairABI: parsed,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Venue returns the variant this reader serves.
func (r *Reader) Venue() domain.Venue {
	return domain.VenueUniswapV2
}

// ReadState fetches reserves and synthesizes the canonical state. The pair
// contract has no sqrt-price slot, so it is derived from the reserve ratio:
// sqrtPriceX96 = sqrt(reserve1 * 2^192 / reserve0).
func (r *Reader) ReadState(ctx context.Context, handle *chaindomain.ContractHandle) (*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "univ2.read_state",
		trace.WithAttributes(attribute.String("pair", handle.Address.Hex())),
	)
	defer span.End()

	input, err := r.pairABI.Pack("getReserves")
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to encode getReserves"))
	}

	output, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &handle.Address,
		Data: input,
	}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, err
	}

	values, err := r.pairABI.Unpack("getReserves", output)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode getReserves"))
	}

	reserve0 := values[0].(*big.Int)
	reserve1 := values[1].(*big.Int)

	if reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		err := apperror.New(apperror.CodeStaleRead,
			apperror.WithContext("pair reports empty reserves"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty reserves")
		return nil, err
	}

	state := &domain.PoolState{
		Venue:        domain.VenueUniswapV2,
		SqrtPriceX96: SqrtPriceFromReserves(reserve0, reserve1),
		Tick:         0,
		Liquidity:    liquidityFromReserves(reserve0, reserve1),
		Reserve0:     reserve0,
		Reserve1:     reserve1,
		ReadAt:       time.Now(),
	}

	span.SetStatus(codes.Ok, "read")
	return state, nil
}

// SqrtPriceFromReserves derives the Q64.96 sqrt price from pair reserves.
func SqrtPriceFromReserves(reserve0, reserve1 *big.Int) *big.Int {
	ratio := new(big.Int).Mul(reserve1, q192)
	ratio.Quo(ratio, reserve0)
	return ratio.Sqrt(ratio)
}

// liquidityFromReserves maps reserves onto the canonical liquidity field as
// the geometric mean, matching the concentrated-liquidity convention.
func liquidityFromReserves(reserve0, reserve1 *big.Int) *big.Int {
	product := new(big.Int).Mul(reserve0, reserve1)
	return product.Sqrt(product)
}
