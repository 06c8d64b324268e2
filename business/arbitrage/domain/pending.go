// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PendingTransaction tracks one submitted transaction until it is confirmed,
// replaced, or expired. Owned exclusively by the execution manager.
type PendingTransaction struct {
	Hash        common.Hash
	Nonce       uint64
	GasPrice    *big.Int
	SubmittedAt time.Time
}

// Age returns how long the transaction has been pending.
func (p *PendingTransaction) Age() time.Duration {
	return time.Since(p.SubmittedAt)
}
