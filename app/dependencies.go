package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/learnhub/auth"
	"github.com/upb/learnhub/config"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/repositories"
	"github.com/upb/learnhub/repositories/postgres"
	"github.com/upb/learnhub/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Operators  repositories.OperatorRepository
	Categories repositories.CategoryRepository
	Sites      repositories.SiteRepository
	Lessons    repositories.LessonRepository
	TxManager  repositories.TransactionManager

	// Metrics
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Auth
	Tokens    *auth.TokenService
	Passwords *auth.PasswordHasher
	Gate      *middleware.Gate

	// Services
	Credentials *services.CredentialService
	Content     *services.ContentService
}

// NewDependencies opens the database, applies migrations when configured and
// wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := NewDependenciesWithFactory(cfg, factory, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithFactory wires dependencies over an existing repository
// factory. Tests use it with a mocked or containerized database.
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) *Dependencies {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()
	deps.initMetrics()
	deps.initServices()
	deps.initAuth()

	return deps
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Operators = repos.Operators
	d.Categories = repos.Categories
	d.Sites = repos.Sites
	d.Lessons = repos.Lessons
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initMetrics creates the per-process registry. Collectors are registered even
// when the endpoint is disabled so instrumented code needs no nil checks.
func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initServices initializes the credential and content services
func (d *Dependencies) initServices() {
	d.Passwords = auth.NewPasswordHasher(d.Config.Auth.BcryptCost)
	d.Credentials = services.NewCredentialService(d.Operators, d.TxManager, d.Passwords, d.Logger)

	var sanitizer services.HTMLSanitizer
	if d.Config.Content.SanitizeLessonHTML {
		sanitizer = services.NewLessonSanitizer()
	} else {
		d.Logger.Warn("lesson HTML sanitizing disabled")
	}

	d.Content = services.NewContentService(&repositories.Repositories{
		Operators:  d.Operators,
		Categories: d.Categories,
		Sites:      d.Sites,
		Lessons:    d.Lessons,
	}, d.TxManager, sanitizer, d.Logger)
}

// initAuth initializes the token service and the auth gate
func (d *Dependencies) initAuth() {
	d.Tokens = auth.NewTokenService(d.Config.Auth.JWTSecret, d.Config.Auth.JWTIssuer, d.Config.Auth.TokenTTL)
	d.Gate = middleware.NewGate(d.Tokens, d.Credentials, d.Metrics, d.Logger)
	d.Logger.Info("auth gate initialized",
		zap.Duration("token_ttl", d.Config.Auth.TokenTTL))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
