package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/studyquest/internal/config"
	econ "github.com/phrazzld/studyquest/internal/domain/economy"
	"github.com/phrazzld/studyquest/internal/domain/srs"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/scheduler"
	"github.com/phrazzld/studyquest/internal/service/auth"
	"github.com/phrazzld/studyquest/internal/service/economy"
	"github.com/phrazzld/studyquest/internal/service/study"
	"github.com/phrazzld/studyquest/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Persistence
	tx store.Transactor

	// Service interfaces
	jwtService     auth.JWTService
	srsService     srs.Service
	studyService   study.Service
	economyService economy.Service

	// Background jobs and events
	scheduler    *scheduler.Scheduler
	eventEmitter *events.InMemoryEventEmitter

	// cleanup functions run in order on shutdown
	closers []func() error
}

// newApplication wires every service around tx. The returned application
// does not start the scheduler.
func newApplication(cfg *config.Config, logger *slog.Logger, tx store.Transactor) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		tx:     tx,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	intervals, err := cfg.Review.IntervalDays()
	if err != nil {
		return nil, fmt.Errorf("failed to read review intervals: %w", err)
	}
	params, err := srs.NewParams(intervals)
	if err != nil {
		return nil, fmt.Errorf("failed to build SRS parameters: %w", err)
	}
	app.srsService, err = srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	catalog, err := loadCatalog(cfg.Economy)
	if err != nil {
		return nil, err
	}
	logger.Info("economy catalog loaded",
		slog.Int("nobles", len(catalog.Nobles)),
		slog.String("source", catalogSource(cfg.Economy.CatalogPath)))

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	app.studyService, err = study.NewService(tx, app.srsService, study.Settings{
		XPPerSession:   cfg.Study.XPPerSession,
		GemsPerSession: cfg.Study.GemsPerSession,
		Location:       loc,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	app.economyService, err = economy.NewService(tx, catalog, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create economy service: %w", err)
	}

	app.scheduler, err = scheduler.New(tx, scheduler.Config{
		AdvanceInterval: cfg.Scheduler.AdvanceInterval,
		DecayAt:         cfg.Scheduler.DecayAt,
		Location:        loc,
		DailyCap:        cfg.Scheduler.DailyCap,
	}, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// loadCatalog reads the economy catalog and applies any prestige
// overrides set in the configuration.
func loadCatalog(cfg config.EconomyConfig) (*econ.Catalog, error) {
	catalog, err := econ.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load economy catalog: %w", err)
	}
	if cfg.PurchasePrestige != nil {
		catalog.Prestige.Purchase = *cfg.PurchasePrestige
	}
	if cfg.HardBonus != nil {
		catalog.Prestige.HardBonus = *cfg.HardBonus
	}
	return catalog, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// onClose registers fn to run during cleanup.
func (app *application) onClose(fn func() error) {
	app.closers = append(app.closers, fn)
}

// cleanup handles graceful shutdown of application resources. The
// scheduler stops first so no job runs against a closing database.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	for _, fn := range app.closers {
		if err := fn(); err != nil {
			app.logger.Error("Error during shutdown", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
