package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known assets.
type Registry struct {
	byID map[AssetID]*Asset
	mu   sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[AssetID]*Asset)}
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.ID()))
	}
	r.byID[a.ID()] = a
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// GetToken retrieves an ERC20 token asset by chain and address.
func (r *Registry) GetToken(chainID uint64, addr common.Address) (*Asset, bool) {
	return r.Get(NewTokenAssetID(chainID, addr))
}

// Decimals returns the decimal places of a token, falling back to 18 when
// the token is not registered. The bool reports whether it was registered.
func (r *Registry) Decimals(chainID uint64, addr common.Address) (uint8, bool) {
	if a, ok := r.GetToken(chainID, addr); ok {
		return a.Decimals(), true
	}
	return 18, false
}
