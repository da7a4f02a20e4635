// Package server wires the timereport API together and runs it: the HTTP
// API, the gRPC health endpoint and the expired-session cleaner, stopped
// gracefully on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/auth"
	"github.com/dmitrijs2005/timereport/internal/server/config"
	"github.com/dmitrijs2005/timereport/internal/server/mailer"
	"github.com/dmitrijs2005/timereport/internal/server/ratelimit"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/timereport/internal/server/services"
	"github.com/dmitrijs2005/timereport/internal/server/userstore"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/timereport/internal/server/grpc"
	hs "github.com/dmitrijs2005/timereport/internal/server/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	flush       func()
	db          *sql.DB
	stores      *userstore.Registry
	redis       *redis.Client
	authService *services.AuthService
	httpServer  *http.Server
	grpcServer  *gs.GRPCServer
}

// NewApp opens and migrates the central store and builds every component.
// Misconfiguration (weak or shared secrets, console mail in production)
// fails here.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, flush, err := logging.New(c.LogBackend, c.IsProduction(), os.Stdout)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(c.AccessTokenSecret, c.RefreshTokenSecret,
		auth.WithValidity(c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration))
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	sender, err := newSender(c, logger)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenCentral(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app := &App{config: c, logger: logger, flush: flush, db: db}

	var limiter ratelimit.Limiter = ratelimit.Nop{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(app.redis, c.OTPRequestLimit, c.OTPRequestWindow)
	}

	app.stores = userstore.NewRegistry(c.DataDir, c.StoreProvisionTimeout, logger)
	app.authService = services.NewAuthService(db, rm, issuer, app.stores, sender, logger)
	ps := services.NewProjectService(app.stores, rm)
	ts := services.NewTimeEntryService(app.stores, rm, logger)

	h := hs.NewHandler(app.authService, ps, ts, issuer, limiter, logger, hs.Options{
		Production:    c.IsProduction(),
		FrontendURL:   c.FrontendURL,
		AccessMaxAge:  issuer.AccessValidity(),
		RefreshMaxAge: issuer.RefreshValidity(),
	})
	app.httpServer = &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           hs.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, logger)

	return app, nil
}

func newSender(c *config.Config, logger logging.Logger) (services.CodeSender, error) {
	if c.SMTPHost != "" {
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.EmailFrom,
		})
	}
	return mailer.NewConsole(logger, c.IsProduction())
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then releases every
// resource.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		runSessionCleaner(ctx, app.authService, app.config.SessionCleanupInterval, app.logger)
	}()

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if err := app.stores.Close(); err != nil {
		app.logger.Error(ctx, "close stores", "error", err)
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
	app.flush()
}
