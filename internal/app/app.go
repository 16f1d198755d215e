// Package app wires configuration into the services shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Conceptual-Machines/simcase-api/internal/cache"
	"github.com/Conceptual-Machines/simcase-api/internal/config"
	"github.com/Conceptual-Machines/simcase-api/internal/database"
	"github.com/Conceptual-Machines/simcase-api/internal/generation"
	"github.com/Conceptual-Machines/simcase-api/internal/llm"
	"github.com/Conceptual-Machines/simcase-api/internal/logger"
	"github.com/Conceptual-Machines/simcase-api/internal/metrics"
	"github.com/Conceptual-Machines/simcase-api/internal/observability"
	"github.com/Conceptual-Machines/simcase-api/internal/services"
)

type App struct {
	Config     *config.Config
	Generator  *generation.Client
	Cases      *services.CaseService
	Providers  []string
	DB         *gorm.DB
	Attempts   *database.AttemptStore
	Cache      cache.Cache
	Sentry     *metrics.SentryMetrics
	CloudWatch *metrics.Client
}

// New builds the application. Missing provider keys, database and Redis are
// tolerated: requests then fail with missing_credential, attempts are not
// persisted and generations are not cached.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Sentry: metrics.NewSentryMetrics()}

	providers, err := llm.NewProviderChain(ctx, cfg)
	switch {
	case errors.Is(err, llm.ErrNoCredentials):
		if !cfg.TestMode {
			logger.Warn("No generation provider configured", logger.Fields{"provider": cfg.GenerationProvider})
		}
	case err != nil:
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}
	for _, p := range providers {
		a.Providers = append(a.Providers, p.Name())
	}

	a.CloudWatch, err = metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		return nil, err
	}

	observers := []generation.AttemptObserver{
		metrics.NewAttemptMetrics(a.Sentry, a.CloudWatch),
		observability.AttemptTracer{},
	}

	if cfg.DatabaseURL != "" {
		a.DB, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.Attempts = database.NewAttemptStore(a.DB)
		observers = append(observers, a.Attempts)
	}

	a.Cache, err = cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("Generation cache unavailable, continuing without it", logger.Fields{
			"redis_addr": cfg.RedisAddr,
			"error":      err.Error(),
		})
		a.Cache = cache.Noop{}
	}

	a.Generator = generation.NewClient(providers, generation.OptionsFromConfig(cfg), observers...)
	a.Cases = services.NewCaseService(services.CaseServiceDeps{
		Generator:  a.Generator,
		Cache:      a.Cache,
		CacheTTL:   cfg.CacheTTL,
		Sentry:     a.Sentry,
		CloudWatch: a.CloudWatch,
		Langfuse:   observability.InitializeLangfuse(ctx, cfg),
	})
	return a, nil
}

// Close releases the cache and database connections
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
