// Package app contains the execution manager and port definitions for the
// arbitrage context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
)

// TxBackend is the slice of the chain client the execution manager needs:
// nonce baseline, block timestamps for deadlines, submission, and receipts.
type TxBackend interface {
	// NonceAt returns the account's transaction count including mempool entries.
	NonceAt(ctx context.Context, account common.Address) (uint64, error)

	// LatestHeader fetches the most recent block.
	LatestHeader(ctx context.Context) (*chaindomain.Block, error)

	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt fetches the receipt for a mined transaction.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// GasPricer supplies the base gas price before congestion escalation.
type GasPricer interface {
	GetGasPrice(ctx context.Context) (*chaindomain.GasPrice, error)
}

// AllocationProvider supplies the per-venue capital cap, in the input
// token's base units.
type AllocationProvider interface {
	GetAllocation(ctx context.Context, venue string) (*big.Int, error)
}

// SpotOracle supplies an off-chain USD spot price, used to convert gas costs
// into the quote currency opportunities are measured in.
type SpotOracle interface {
	SpotUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}
