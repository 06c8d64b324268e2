// Package main is the entry point for the DEX arbitrage execution engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dkrasnove/arbengine/business/arbitrage"
	"github.com/dkrasnove/arbengine/business/chain"
	chaindomain "github.com/dkrasnove/arbengine/business/chain/domain"
	"github.com/dkrasnove/arbengine/business/pricing"
	"github.com/dkrasnove/arbengine/internal/apm"
	"github.com/dkrasnove/arbengine/internal/config"
	"github.com/dkrasnove/arbengine/internal/health"
	"github.com/dkrasnove/arbengine/internal/logger"
	"github.com/dkrasnove/arbengine/internal/metrics"
	"github.com/dkrasnove/arbengine/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("arbengine %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, apm.TraceID)
	log.Info(ctx, "starting arbengine",
		"version", version,
		"environment", cfg.App.Environment,
		"chain_id", cfg.Ethereum.ChainID,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(traceProviderFor(cfg.Telemetry.TraceProvider), log))
		log.Info(ctx, "tracing initialized",
			"provider", cfg.Telemetry.TraceProvider,
			"endpoint", cfg.Telemetry.OTLPEndpoint,
		)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	} else {
		traceProvider = apm.NewEmptyTraceProvider()
	}
	defer traceProvider.Stop()

	// Create monolith (application container)
	mono := monolith.New(cfg, log)

	// Modules in dependency order: chain provides connectivity, pricing and
	// arbitrage build on top of it.
	chainModule := &chain.Module{}
	pricingModule := &pricing.Module{Chain: chainModule}
	arbitrageModule := &arbitrage.Module{Chain: chainModule, Pricing: pricingModule}

	if err := mono.StartModules(ctx, chainModule, pricingModule, arbitrageModule); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	defer pricingModule.Close()
	defer chainModule.Close()

	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, version, log)
		healthServer.RegisterCheck("rpc", func(ctx context.Context) (bool, string) {
			if _, err := chainModule.Client().LatestHeader(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
		healthServer.RegisterCheck("block_subscription", func(ctx context.Context) (bool, string) {
			status := chainModule.Subscriber().Status()
			if status.State == chaindomain.StateDisconnected {
				return false, "block subscription disconnected"
			}
			transport := "ws"
			if status.UsingHTTP {
				transport = "http"
			}
			return true, fmt.Sprintf("block %d via %s", status.LastBlock, transport)
		})
		healthServer.RegisterCheck("reference_oracle", func(ctx context.Context) (bool, string) {
			cost, err := arbitrageModule.Planner().GasCostUSD(ctx)
			if err != nil {
				return false, err.Error()
			}
			return true, fmt.Sprintf("swap gas cost $%s", cost.StringFixed(2))
		})
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Health.Port)
		}
		defer healthServer.Stop(ctx)
	}

	blocks, err := chainModule.Service().SubscribeBlocks(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to blocks: %w", err)
	}

	log.Info(ctx, "all modules started",
		"account", arbitrageModule.Executor().Address().Hex(),
		"venues", len(cfg.Venues),
	)

	// Main loop: keep the process alive and log block progression. Opportunity
	// submission is driven through the arbitrage module's ExecutionManager.
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			return nil
		case block, ok := <-blocks:
			if !ok {
				log.Warn(ctx, "block stream closed")
				return nil
			}
			log.Debug(ctx, "new block",
				"number", block.Number,
				"pending_txs", arbitrageModule.Executor().PendingCount(),
			)
		}
	}
}

// traceProviderFor maps the configured trace provider name onto an exporter.
func traceProviderFor(name string) apm.Provider {
	switch name {
	case "otlp_grpc":
		return apm.OTLPGRPCProvider
	case "otlp_http":
		return apm.OTLPHTTPProvider
	case "console":
		return apm.ConsoleProvider
	case "zipkin":
		return apm.ZipkinProvider
	default:
		return apm.EmptyProvider
	}
}
