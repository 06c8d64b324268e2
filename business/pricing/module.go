// Package pricing implements the pricing bounded context: pool state reads,
// fixed-point price conversion, and per-venue swap math.
package pricing

import (
	"context"
	"fmt"

	chain "github.com/dkrasnove/arbengine/business/chain"
	"github.com/dkrasnove/arbengine/business/pricing/app"
	"github.com/dkrasnove/arbengine/business/pricing/domain"
	"github.com/dkrasnove/arbengine/business/pricing/infra/algebra"
	"github.com/dkrasnove/arbengine/business/pricing/infra/coinbase"
	"github.com/dkrasnove/arbengine/business/pricing/infra/univ2"
	"github.com/dkrasnove/arbengine/business/pricing/infra/univ3"
	"github.com/dkrasnove/arbengine/internal/monolith"
)

// Module implements the pricing bounded context. It depends on the chain
// module for contract calls and batching.
type Module struct {
	Chain *chain.Module

	service   *app.PricingService
	reference *coinbase.Provider
}

// Service returns the pricing application service.
func (m *Module) Service() *app.PricingService {
	return m.service
}

// Reference returns the USD reference oracle.
func (m *Module) Reference() *coinbase.Provider {
	return m.reference
}

// Startup wires the venue readers and calculators.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	if m.Chain == nil {
		return fmt.Errorf("pricing module requires the chain module")
	}

	client := m.Chain.Client()
	chainSvc := m.Chain.Service()

	v2Reader, err := univ2.NewReader(client, log)
	if err != nil {
		return fmt.Errorf("create univ2 reader: %w", err)
	}

	v3Reader, err := univ3.NewReader(chainSvc, log)
	if err != nil {
		return fmt.Errorf("create univ3 reader: %w", err)
	}

	algebraReader, err := algebra.NewReader(chainSvc, log)
	if err != nil {
		return fmt.Errorf("create algebra reader: %w", err)
	}

	// One fee tier per process keeps the calculator map closed; per-venue
	// tiers come from the first configured venue of each kind.
	v3Fee := uint32(3000)
	for _, venue := range cfg.Venues {
		if venue.Kind == domain.VenueUniswapV3.String() && venue.FeeTier > 0 {
			v3Fee = venue.FeeTier
			break
		}
	}

	calculators := map[domain.Venue]app.AmountCalculator{
		domain.VenueUniswapV2: univ2.NewCalculator(),
		domain.VenueUniswapV3: univ3.NewCalculator(v3Fee),
		domain.VenueAlgebra:   algebra.NewCalculator(),
	}

	service, err := app.NewPricingService(
		[]app.PoolReader{v2Reader, v3Reader, algebraReader},
		calculators,
		mono.AssetRegistry(),
		cfg.Ethereum.ChainID,
		cfg.Ethereum.SerializePoolReads,
		log,
	)
	if err != nil {
		return fmt.Errorf("create pricing service: %w", err)
	}

	reference, err := coinbase.NewProvider("", log)
	if err != nil {
		return fmt.Errorf("create reference oracle: %w", err)
	}

	m.service = service
	m.reference = reference

	log.Info(ctx, "pricing module started", "venues", len(cfg.Venues))
	return nil
}

// Close releases pricing resources.
func (m *Module) Close() error {
	if m.reference != nil {
		m.reference.Close()
	}
	return nil
}
