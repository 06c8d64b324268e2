// Package arbitrage implements the arbitrage bounded context: the
// opportunity model and the execution manager.
package arbitrage

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dkrasnove/arbengine/business/arbitrage/app"
	"github.com/dkrasnove/arbengine/business/arbitrage/domain"
	"github.com/dkrasnove/arbengine/business/arbitrage/infra"
	chain "github.com/dkrasnove/arbengine/business/chain"
	pricing "github.com/dkrasnove/arbengine/business/pricing"
	"github.com/dkrasnove/arbengine/internal/monolith"
)

// Module implements the arbitrage bounded context. It depends on the chain
// module for submission and gas pricing, and on the pricing module for the
// USD reference oracle.
type Module struct {
	Chain   *chain.Module
	Pricing *pricing.Module

	executor    *app.ExecutionManager
	planner     *app.Planner
	allocations *infra.StaticAllocations
	thresholds  domain.Thresholds
}

// Executor returns the execution manager.
func (m *Module) Executor() *app.ExecutionManager {
	return m.executor
}

// Planner returns the opportunity planner.
func (m *Module) Planner() *app.Planner {
	return m.planner
}

// Allocations returns the per-venue capital table.
func (m *Module) Allocations() *infra.StaticAllocations {
	return m.allocations
}

// Thresholds returns the validation thresholds built from config.
func (m *Module) Thresholds() domain.Thresholds {
	return m.thresholds
}

// Startup wires and initializes the execution manager.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	if m.Chain == nil {
		return fmt.Errorf("arbitrage module requires the chain module")
	}
	if m.Pricing == nil {
		return fmt.Errorf("arbitrage module requires the pricing module")
	}

	if cfg.Execution.PrivateKey == "" {
		return fmt.Errorf("execution.private_key is required")
	}

	key, err := crypto.HexToECDSA(cfg.Execution.PrivateKey)
	if err != nil {
		return fmt.Errorf("parse signing key: %w", err)
	}

	m.allocations = infra.NewStaticAllocations(cfg.Venues)
	m.thresholds = domain.Thresholds{
		MinProfitUSD:   cfg.Arbitrage.MinProfitUSDDecimal(),
		MaxPriceImpact: cfg.Arbitrage.MaxPriceImpactDecimal(),
	}

	client := m.Chain.Client()

	executor, err := app.NewExecutionManager(
		app.ExecutorConfig{
			GasLimit:           cfg.Execution.GasLimit,
			MaxGasPrice:        cfg.Execution.MaxGasPriceWei(),
			GasEscalationBps:   cfg.Execution.GasEscalationBps,
			MaxSlippageBps:     cfg.Execution.MaxSlippageBps,
			DeadlineWindow:     cfg.Execution.DeadlineWindow,
			RetryAttempts:      cfg.Execution.RetryAttempts,
			RetryDelay:         cfg.Execution.RetryDelay,
			ConfirmationBlocks: cfg.Execution.ConfirmationBlocks,
			ConfirmTimeout:     cfg.Execution.Timeout,
		},
		client,
		m.Chain.GasOracle(),
		m.allocations,
		key,
		client.ChainID(),
		log,
	)
	if err != nil {
		return fmt.Errorf("create execution manager: %w", err)
	}

	if err := executor.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize execution manager: %w", err)
	}

	planner, err := app.NewPlanner(m.Pricing.Reference(), m.Chain.GasOracle(), cfg.Execution.GasLimit, log)
	if err != nil {
		return fmt.Errorf("create planner: %w", err)
	}

	m.executor = executor
	m.planner = planner

	log.Info(ctx, "arbitrage module started", "account", executor.Address().Hex())
	return nil
}
