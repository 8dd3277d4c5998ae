// Package server wires PixKeeper together: it opens the database, applies
// migrations, connects to object storage, builds the services and runs the
// HTTP server until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pixkeeper/internal/server/services"
	"github.com/dmitrijs2005/pixkeeper/internal/server/storage"
	"github.com/dmitrijs2005/pixkeeper/internal/server/weather"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newRepoManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}

	newObjectStore = func(ctx context.Context, c *config.Config) (objectStore, error) {
		return storage.NewS3Store(ctx, c)
	}
)

type objectStore interface {
	storage.ObjectStore
	EnsureBucket(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpserver.HTTPServer
}

// NewApp connects to PostgreSQL and object storage and assembles the
// services. The returned App owns the database pool.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := OpenDatabase(ctx, c)
	if err != nil {
		return nil, err
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Warn(ctx, "bucket check failed, uploads may fail", "bucket", c.S3Bucket, "error", err)
	}

	gate := auth.NewGate(
		auth.StaticAccount{Username: c.AdminUsername, Secret: c.AdminPassword},
		auth.StaticAccount{Username: c.LegacyUsername, Secret: c.LegacyPassword},
		rm.Users(db),
	)

	srv, err := httpserver.NewHTTPServer(c, logger, httpserver.Deps{
		Gate:    gate,
		Signup:  services.NewSignupService(db, rm, c, logger),
		Gallery: services.NewGalleryService(db, rm, store, c, logger),
		Weather: weather.NewClient(c.WeatherBaseURL, c.WeatherAPIKey, c.WeatherTimeout),
		DB:      db,
	})
	if err != nil {
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

// OpenDatabase opens the pgx pool with the configured limits and checks
// that the server answers.
func OpenDatabase(ctx context.Context, c *config.Config) (*sql.DB, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until ctx is cancelled or a termination signal arrives, then
// shuts the HTTP server down and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "signup_mode", app.config.SignupMode, "delete_policy", app.config.DeletePolicy)

	app.initSignalHandler(cancelFunc)

	runErr := app.http.Run(ctx)
	if runErr != nil {
		app.logger.Error(ctx, "http server stopped", "error", runErr)
	}

	closeErr := app.db.Close()
	app.logger.Info(ctx, "App stopped")

	return errors.Join(runErr, closeErr)
}
