// Package main implements the entry point for the StudyQuest server, which
// tracks study topics through the review pipeline and runs the gem economy.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/platform/postgres"
	"github.com/phrazzld/studyquest/internal/service/auth"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studyquest",
		Short:         "Study tracker API with review scheduling and a gem economy",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Apply migrations, start the scheduler and serve HTTP",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "advance",
			Short: "Run one review admission cycle and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAdvance(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "decay",
			Short: "Reset stale study streaks once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDecay(cmd.Context())
			},
		},
		newTokenCmd(),
	)

	return root
}

func newTokenCmd() *cobra.Command {
	var userFlag string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			cfg, _, err := initializeApp()
			if err != nil {
				return err
			}
			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(cmd.Context(), userID, ttl)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user ID (UUID) placed in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// initializeApp loads configuration and sets up logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"scheduler_enabled", cfg.Scheduler.Enabled)
	return cfg, log, nil
}

// bootstrap loads configuration, connects to the database and applies
// migrations. The returned application owns the database connection.
func bootstrap(ctx context.Context) (*application, error) {
	cfg, log, err := initializeApp()
	if err != nil {
		return nil, err
	}

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, db.DB, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := newApplication(cfg, log, postgres.NewTransactor(db, cfg.Database.TxTimeout, log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.onClose(db.Close)
	return app, nil
}

func runServe(ctx context.Context) error {
	app, err := bootstrap(ctx)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		return err
	}

	if app.config.Scheduler.Enabled {
		if err := app.scheduler.Start(ctx); err != nil {
			app.logger.Error("failed to start scheduler", "error", err)
			app.cleanup()
			return err
		}
	} else {
		app.logger.Warn("scheduler disabled by configuration")
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := initializeApp()
	if err != nil {
		return err
	}
	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db.DB, log)
}

func runAdvance(ctx context.Context) error {
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.cleanup()

	result, err := app.scheduler.RunAdvancementCycle(ctx, time.Now())
	if err != nil {
		return err
	}
	app.logger.Info("admission cycle finished",
		slog.Int("today_before", result.Today),
		slog.Int("admitted", len(result.Admitted)))
	return nil
}

func runDecay(ctx context.Context) error {
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.cleanup()

	reset, err := app.scheduler.RunStreakDecay(ctx, time.Now())
	if err != nil {
		return err
	}
	app.logger.Info("streak decay finished", slog.Int("users_reset", reset))
	return nil
}
