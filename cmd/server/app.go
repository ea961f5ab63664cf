package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/taskward/taskward-api/internal/config"
	"github.com/taskward/taskward-api/internal/platform/postgres"
	"github.com/taskward/taskward-api/internal/service/auth"
	"github.com/taskward/taskward-api/internal/store"
)

// application holds the initialized dependencies shared by the HTTP layer.
// All wiring happens here, explicitly: there are no package-level singletons,
// so tests can assemble the same graph around fakes.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	db          *sql.DB
	userStore   store.UserStore
	taskStore   store.TaskStore
	authService *auth.Service
}

// newApplication wires the service graph from the loaded configuration and
// an open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	fingerprinter, err := auth.NewHMACFingerprinter(cfg.Auth.FingerprintSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create fingerprinter: %w", err)
	}

	sink := auth.NewSlogAuditSink(logger)
	guard := auth.NewLockoutGuard(userStore, sink, auth.PolicyFromConfig(cfg.Lockout))
	hasher := auth.NewBcryptHasher()

	authService := auth.NewService(
		userStore,
		jwtService,
		hasher,
		hasher,
		fingerprinter,
		guard,
		sink,
	)

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		userStore:   userStore,
		taskStore:   taskStore,
		authService: authService,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
