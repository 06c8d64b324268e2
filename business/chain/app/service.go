// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dkrasnove/arbengine/business/chain/domain"
)

// ChainService coordinates chain interactions for the other contexts.
type ChainService struct {
	loader     ContractLoader
	batcher    BatchCaller
	gasOracle  GasOracle
	subscriber BlockSubscriber
}

// NewChainService creates a new ChainService.
func NewChainService(loader ContractLoader, batcher BatchCaller, gasOracle GasOracle, subscriber BlockSubscriber) *ChainService {
	return &ChainService{
		loader:     loader,
		batcher:    batcher,
		gasOracle:  gasOracle,
		subscriber: subscriber,
	}
}

// LoadContract loads a contract handle by address and interface name.
func (s *ChainService) LoadContract(ctx context.Context, address, interfaceName string) (*domain.ContractHandle, error) {
	return s.loader.LoadContract(ctx, address, interfaceName)
}

// BatchCall executes batched read calls at the given block.
func (s *ChainService) BatchCall(ctx context.Context, calls []domain.Call, blockNumber *big.Int) ([]domain.CallResult, error) {
	return s.batcher.BatchCall(ctx, calls, blockNumber)
}

// GetGasPrice retrieves the current clamped gas price.
func (s *ChainService) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.GetGasPrice(ctx)
}

// EstimateGas estimates gas for a call including the safety buffer.
func (s *ChainService) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return s.gasOracle.EstimateGas(ctx, from, to, data)
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *ChainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock retrieves the most recent block.
func (s *ChainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// ConnectionState returns the current subscription connection state.
func (s *ChainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}
