package main

import (
	"context"
	"fmt"
	"os"

	"github.com/upb/learnhub/auth"
	"github.com/upb/learnhub/config"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/repositories/postgres"
	"github.com/upb/learnhub/services"
	"go.uber.org/zap"
)

func main() {
	env := &environment{
		out:     os.Stdout,
		connect: connect,
		migrate: migrate,
	}
	if err := newRootCmd(env).Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds a quiet logger for CLI use.
func loadRuntime(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	obs := cfg.Observability
	obs.LogLevel = "warn"
	logger, err := observability.NewLogger(obs)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func connect(ctx context.Context) (operatorStore, func() error, error) {
	cfg, logger, err := loadRuntime(ctx)
	if err != nil {
		return nil, nil, err
	}

	factory, err := postgres.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	repos := factory.NewRepositories()
	store := services.NewCredentialService(
		repos.Operators,
		factory.GetTransactionManager(),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		logger,
	)
	return store, factory.Close, nil
}

func migrate(ctx context.Context) error {
	cfg, logger, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	return db.Migrate(ctx)
}
