// Package asset provides a type-safe model for the tokens a venue trades.
// Identity is the (chain, address) pair; symbols are display metadata only.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID uniquely identifies an asset by chain and contract address.
// For native coins the address is zero; fiat uses chain id 0.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{chainID: chainID, address: addr}
}

// NewFiatAssetID creates an AssetID for an off-chain currency.
func NewFiatAssetID(symbol string) AssetID {
	return AssetID{
		chainID: 0,
		address: common.BytesToAddress(common.RightPadBytes([]byte(symbol), 20)),
	}
}

// ChainID returns the chain ID (0 for fiat).
func (id AssetID) ChainID() uint64 { return id.chainID }

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address { return id.address }

// Equals compares two AssetIDs.
func (id AssetID) Equals(other AssetID) bool { return id == other }

// String returns a human-readable identifier.
func (id AssetID) String() string {
	return fmt.Sprintf("%d:%s", id.chainID, id.address.Hex())
}

// Asset holds the metadata of a crypto or fiat asset.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}

	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewAssetWithName creates a new Asset with a human-readable name.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

// ID returns the unique identifier for this asset.
func (a *Asset) ID() AssetID { return a.id }

// Symbol returns the ticker symbol (e.g., "WETH", "USDC").
func (a *Asset) Symbol() string { return a.symbol }

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 { return a.decimals }

// Address returns the token contract address (zero for native coins).
func (a *Asset) Address() common.Address { return a.id.Address() }

// String returns the symbol.
func (a *Asset) String() string { return a.symbol }

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
