// Package chain implements the chain bounded context for Ethereum integration.
package chain

import (
	"context"
	"fmt"

	"github.com/dkrasnove/arbengine/business/chain/app"
	"github.com/dkrasnove/arbengine/business/chain/infra/ethereum"
	"github.com/dkrasnove/arbengine/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct {
	client     *ethereum.Client
	loader     *ethereum.ContractLoader
	multicall  *ethereum.Multicaller
	gasOracle  *ethereum.GasOracle
	subscriber *ethereum.Subscriber
	service    *app.ChainService
}

// Client returns the low-level chain client for contexts that submit transactions.
func (m *Module) Client() *ethereum.Client {
	return m.client
}

// Service returns the chain application service.
func (m *Module) Service() *app.ChainService {
	return m.service
}

// Subscriber returns the block subscriber.
func (m *Module) Subscriber() *ethereum.Subscriber {
	return m.subscriber
}

// GasOracle returns the gas oracle.
func (m *Module) GasOracle() *ethereum.GasOracle {
	return m.gasOracle
}

// Startup wires and connects the chain infrastructure.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	client, err := ethereum.NewClient(ethereum.ClientConfig{
		HTTPURL:   cfg.Ethereum.HTTPURL,
		ChainID:   cfg.Ethereum.ChainID,
		RateLimit: cfg.Ethereum.RPCRateLimit,
	}, log)
	if err != nil {
		return fmt.Errorf("create chain client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect chain client: %w", err)
	}

	loader, err := ethereum.NewContractLoader(cfg.Ethereum.InterfaceDir, cfg.Ethereum.ContractCacheSize, log)
	if err != nil {
		return fmt.Errorf("create contract loader: %w", err)
	}

	multicall := ethereum.NewMulticaller(cfg.Ethereum.MulticallAddressHex(), client, log)

	oracleCfg := ethereum.DefaultGasOracleConfig()
	oracleCfg.CacheTTL = cfg.Ethereum.GasCacheTTL
	oracleCfg.MaxGasPrice = cfg.Ethereum.MaxGasPriceWei()

	gasOracle, err := ethereum.NewGasOracle(oracleCfg, client, log)
	if err != nil {
		return fmt.Errorf("create gas oracle: %w", err)
	}

	subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
	subCfg.PollInterval = cfg.Ethereum.PollInterval
	subCfg.ReconnectDelay = cfg.Ethereum.ReconnectDelay

	subscriber, err := ethereum.NewSubscriber(subCfg, log)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}

	m.client = client
	m.loader = loader
	m.multicall = multicall
	m.gasOracle = gasOracle
	m.subscriber = subscriber
	m.service = app.NewChainService(loader, multicall, gasOracle, subscriber)

	log.Info(ctx, "chain module started")
	return nil
}

// Close releases all chain resources.
func (m *Module) Close() error {
	if m.subscriber != nil {
		m.subscriber.Close()
	}
	if m.gasOracle != nil {
		m.gasOracle.Close()
	}
	if m.client != nil {
		m.client.Close()
	}
	return nil
}
