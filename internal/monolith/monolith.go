// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/dkrasnove/arbengine/internal/asset"
	"github.com/dkrasnove/arbengine/internal/config"
	"github.com/dkrasnove/arbengine/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
}

// Module represents a bounded context module that can start up against the container.
type Module interface {
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
}

// New creates a new Monolith instance. The chain connection is owned by the
// chain module; the container only carries cross-cutting state.
func New(cfg *config.Config, log logger.LoggerInterface) *app {
	// Pre-populated with common mainnet assets.
	return &app{
		config:        cfg,
		logger:        log,
		assetRegistry: asset.DefaultRegistry(),
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
