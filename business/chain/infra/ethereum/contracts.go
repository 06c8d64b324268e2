package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/internal/apperror"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// abiArtifact covers compiler artifacts that wrap the ABI in an object.
type abiArtifact struct {
	ABI json.RawMessage `json:"abi"`
}

// loaderMetrics holds OTEL metric instruments.
type loaderMetrics struct {
	loads       metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// ContractLoader loads contract interfaces from a directory of ABI files and
// caches the resulting handles by (address, interface name).
type ContractLoader struct {
	interfaceDir string
	logger       logger.LoggerInterface

	handles *lru.Cache[string, *domain.ContractHandle]

	tracer  trace.Tracer
	metrics *loaderMetrics
}

// NewContractLoader creates a loader reading interfaces from interfaceDir.
// Files are looked up as <interfaceDir>/<name>.json and may contain either a
// raw ABI array or a compiler artifact with an "abi" field.
func NewContractLoader(interfaceDir string, cacheSize int, log logger.LoggerInterface) (*ContractLoader, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}

	handles, err := lru.New[string, *domain.ContractHandle](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create handle cache: %w", err)
	}

	l := &ContractLoader{
		interfaceDir: interfaceDir,
		logger:       log,
		handles:      handles,
		tracer:       otel.Tracer(tracerName),
	}

	if err := l.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return l, nil
}

// initMetrics initializes OTEL metric instruments.
func (l *ContractLoader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	l.metrics = &loaderMetrics{}

	l.metrics.loads, err = meter.Int64Counter(
		"contract_loads_total",
		metric.WithDescription("Total contract interface loads from disk"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return err
	}

	l.metrics.cacheHits, err = meter.Int64Counter(
		"contract_cache_hits_total",
		metric.WithDescription("Contract handle cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	l.metrics.cacheMisses, err = meter.Int64Counter(
		"contract_cache_misses_total",
		metric.WithDescription("Contract handle cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// LoadContract validates the address, loads the named interface, and returns
// a handle. Repeated loads for the same (address, interface) pair hit the
// cache.
func (l *ContractLoader) LoadContract(ctx context.Context, address, interfaceName string) (*domain.ContractHandle, error) {
	ctx, span := l.tracer.Start(ctx, "contract.load",
		trace.WithAttributes(
			attribute.String("address", address),
			attribute.String("interface", interfaceName),
		),
	)
	defer span.End()

	addr, err := ValidateAddress(address)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid address")
		return nil, err
	}

	key := addr.Hex() + "|" + interfaceName

	if handle, ok := l.handles.Get(key); ok {
		l.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return handle, nil
	}

	l.metrics.cacheMisses.Add(ctx, 1)
	l.metrics.loads.Add(ctx, 1)

	parsed, err := l.loadABI(interfaceName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interface load failed")
		return nil, err
	}

	handle := &domain.ContractHandle{
		Address:       addr,
		InterfaceName: interfaceName,
		ABI:           parsed,
	}

	l.handles.Add(key, handle)

	l.logger.Debug(ctx, "contract interface loaded",
		"address", addr.Hex(), "interface", interfaceName)

	span.SetStatus(codes.Ok, "loaded")
	return handle, nil
}

// loadABI reads and parses one interface file.
func (l *ContractLoader) loadABI(interfaceName string) (abi.ABI, error) {
	// Interface names come from config; reject anything that escapes the dir.
	if strings.ContainsAny(interfaceName, `/\`) {
		return abi.ABI{}, apperror.New(apperror.CodeInterfaceNotFound,
			apperror.WithContext(fmt.Sprintf("invalid interface name %q", interfaceName)))
	}

	path := filepath.Join(l.interfaceDir, interfaceName+".json")

	raw, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, apperror.New(apperror.CodeInterfaceNotFound,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("interface %q not found in %s", interfaceName, l.interfaceDir)))
	}

	abiJSON := raw
	var artifact abiArtifact
	if err := json.Unmarshal(raw, &artifact); err == nil && len(artifact.ABI) > 0 {
		abiJSON = artifact.ABI
	}

	parsed, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return abi.ABI{}, apperror.New(apperror.CodeInterfaceNotFound,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("interface %q is not valid ABI JSON", interfaceName)))
	}

	return parsed, nil
}

// CacheLen returns the number of cached handles.
func (l *ContractLoader) CacheLen() int {
	return l.handles.Len()
}
