// Package app wires configuration, storage, clients and services into a
// ready-to-use application container.
package app

import (
	"fmt"

	"github.com/rfmachado/patrimonio/internal/clients/bcb"
	"github.com/rfmachado/patrimonio/internal/clients/yahoo"
	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/services/prices"
	"github.com/rfmachado/patrimonio/internal/services/valuation"
	"github.com/rfmachado/patrimonio/internal/storage"
)

// App holds the wired application components.
type App struct {
	Config    *common.Config
	Logger    *common.Logger
	Storage   *storage.Manager
	Prices    *prices.Service
	Valuation *valuation.Service
}

// NewApp creates the application container from an optional config path.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	manager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	quotes := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)
	rates := bcb.NewClient(
		bcb.WithBaseURL(config.Clients.BCB.BaseURL),
		bcb.WithRateLimit(config.Clients.BCB.RateLimit),
		bcb.WithTimeout(config.Clients.BCB.GetTimeout()),
		bcb.WithLogger(logger),
	)

	resolver := prices.NewService(quotes, manager, logger, config.Valuation)
	engine := valuation.NewService(manager, resolver, rates, logger)

	logger.Info().
		Str("environment", config.Environment).
		Str("data", manager.DataPath()).
		Msg("Application initialized")

	return &App{
		Config:    config,
		Logger:    logger,
		Storage:   manager,
		Prices:    resolver,
		Valuation: engine,
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	if err := a.Storage.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Storage close failed")
	}
}
