// Package domain contains the core domain types for the chain context.
package domain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractHandle is a loaded contract: an address bound to a parsed interface.
// Handles are immutable once loaded and safe for concurrent use.
type ContractHandle struct {
	Address       common.Address
	InterfaceName string
	ABI           abi.ABI
}

// Pack encodes a method call against the handle's interface.
func (h *ContractHandle) Pack(method string, args ...interface{}) ([]byte, error) {
	return h.ABI.Pack(method, args...)
}

// Unpack decodes return data for a method of the handle's interface.
func (h *ContractHandle) Unpack(method string, data []byte) ([]interface{}, error) {
	return h.ABI.Unpack(method, data)
}

// Call is one read call in a multicall batch.
type Call struct {
	Target       common.Address
	CallData     []byte
	AllowFailure bool
}

// CallResult is the per-call outcome of a multicall batch, in input order.
type CallResult struct {
	Success    bool
	ReturnData []byte
}
