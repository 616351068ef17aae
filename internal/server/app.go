// Package server initializes and runs the application: it selects and
// readies a storage engine, wires the services, and handles graceful
// shutdown with explicit teardown of the local store.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/config"
	"github.com/MoCipher/EmailAlies/internal/server/keys"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/repomanager"
	"github.com/MoCipher/EmailAlies/internal/server/services"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
	"github.com/MoCipher/EmailAlies/internal/server/verification"
)

// App bundles the wired services plus the storage adapter they run on.
type App struct {
	config       *config.Config
	logger       logging.Logger
	store        *storage.Store
	verification verification.Service

	UserService  *services.UserService
	AliasService *services.AliasService
	EmailService *services.EmailService
	SyncService  *services.SyncService
}

// NewApp builds the application from configuration. For the local engine
// the process-wide store is opened here; for the edge engine the store is
// bound and asynchronously initialized before any service touches it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var store *storage.Store
	var err error
	switch cfg.Engine {
	case config.EngineEdge:
		store, err = storage.OpenEdge(cfg.EdgeReplicaPath, cfg.EdgePrimaryURL, cfg.EdgeAuthToken, logger)
		if err == nil {
			err = store.Init(ctx)
		}
	default:
		store, err = storage.OpenLocal(ctx, cfg.LocalDBPath, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	km, err := keys.NewManager([]byte(cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("key manager init error: %w", err)
	}

	rm := repomanager.NewSQLiteRepositoryManager()

	syncSvc := services.NewSyncService(store, rm, logger, cfg)

	app := &App{
		config:       cfg,
		logger:       logger,
		store:        store,
		verification: verification.NewMemoryService(),
		UserService:  services.NewUserService(store, rm, km, logger),
		AliasService: services.NewAliasService(store, rm, syncSvc, logger, cfg),
		EmailService: services.NewEmailService(store, rm, syncSvc, logger),
		SyncService:  syncSvc,
	}
	return app, nil
}

// Verification exposes the external code-verification collaborator.
func (app *App) Verification() verification.Service {
	return app.verification
}

// Run blocks until the context is cancelled or a termination signal
// arrives, then tears the storage down.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "starting app", "engine", app.config.Engine)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigs)

	select {
	case <-ctx.Done():
	case <-sigs:
		cancel()
	}

	app.Close()
}

// Close releases the storage adapter. The local engine owns a process-wide
// handle, so it is torn down through CloseLocal.
func (app *App) Close() {
	var err error
	if app.store.Engine() == storage.EngineLocal {
		err = storage.CloseLocal()
	} else {
		err = app.store.Close()
	}
	if err != nil {
		app.logger.Error(context.Background(), "storage shutdown error", "error", err)
	}
}
