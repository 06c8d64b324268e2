// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dkrasnove/arbengine/business/chain/domain"
)

// ContractLoader loads contract handles by address and interface name.
type ContractLoader interface {
	// LoadContract validates the address, loads the named interface, and
	// returns a cached handle on repeated calls.
	LoadContract(ctx context.Context, address, interfaceName string) (*domain.ContractHandle, error)
}

// BatchCaller executes batched read calls at a block.
type BatchCaller interface {
	// BatchCall returns one result per call in input order. A nil block
	// number targets latest.
	BatchCall(ctx context.Context, calls []domain.Call, blockNumber *big.Int) ([]domain.CallResult, error)
}

// GasOracle provides gas price and estimation information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price, clamped to the
	// configured ceiling.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates gas for a call including the safety buffer.
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
}

// BlockSubscriber delivers new block headers.
type BlockSubscriber interface {
	// Subscribe starts listening for new blocks and returns a channel.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}
