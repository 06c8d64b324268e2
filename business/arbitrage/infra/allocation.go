// Package infra provides infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"math/big"
	"sync"

	"github.com/dkrasnove/arbengine/internal/config"
)

// StaticAllocations serves per-venue capital caps from configuration. Caps
// can be adjusted at runtime by an external controller through SetAllocation.
type StaticAllocations struct {
	mu          sync.RWMutex
	allocations map[string]*big.Int
}

// NewStaticAllocations builds the allocation table from the venue config.
func NewStaticAllocations(venues []config.VenueConfig) *StaticAllocations {
	allocations := make(map[string]*big.Int, len(venues))
	for _, v := range venues {
		allocations[v.Name] = v.MaxAmountInBig()
	}
	return &StaticAllocations{allocations: allocations}
}

// GetAllocation returns the limit for a venue in input-token base units. An
// unknown venue gets nil, which callers treat as no capital allocated.
func (a *StaticAllocations) GetAllocation(_ context.Context, venue string) (*big.Int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	limit, ok := a.allocations[venue]
	if !ok || limit == nil {
		return nil, nil
	}
	return new(big.Int).Set(limit), nil
}

// SetAllocation replaces the limit for a venue.
func (a *StaticAllocations) SetAllocation(venue string, limit *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit == nil {
		a.allocations[venue] = nil
		return
	}
	a.allocations[venue] = new(big.Int).Set(limit)
}
