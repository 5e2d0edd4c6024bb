package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/docbase/internal/config"
	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/middleware"
	"github.com/simp-lee/docbase/internal/module/user"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	store  *config.Store
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the storage backend, the user repository, service and
// handler, middleware, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes the API explorer and permissive CORS")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// 2. Open the storage backend.
	store, err := config.OpenStore(ctx, &cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := store.Close(context.Background()); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	// 3. Manual dependency injection: repository → service → handler.
	repo, err := newUserRepository(ctx, store, cfg.Server.Mode, log.Logger)
	if err != nil {
		return nil, err
	}
	handler := user.NewUserHandler(user.NewUserService(repo))

	// 4. Create Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
	)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		engine.Use(middleware.RateLimit(rl.RPS, rl.Burst))
	}

	// 5. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:        []Module{user.NewModule(handler)},
		Store:          store,
		Mode:           cfg.Server.Mode,
		RequestTimeout: config.Duration(cfg.Server.Timeout, 0),
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	if cfg.Server.Mode != gin.ReleaseMode {
		log.Info("swagger is available at /swagger/index.html")
	}

	success = true
	return &App{
		engine: engine,
		store:  store,
		logger: log,
		cfg:    cfg,
	}, nil
}

// newUserRepository builds the user repository for the connected backend and
// prepares its schema: indexes on MongoDB, AutoMigrate on SQL outside release
// mode.
func newUserRepository(ctx context.Context, store *config.Store, mode string, log *slog.Logger) (domain.UserRepository, error) {
	switch {
	case store.Mongo != nil:
		if err := user.EnsureIndexes(ctx, store.Mongo); err != nil {
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		log.Info("mongo indexes ensured", slog.String("collection", user.CollectionName))
		return user.NewMongoRepository(store.Mongo), nil
	case store.DB != nil:
		if mode != gin.ReleaseMode {
			if err := store.DB.AutoMigrate(&domain.User{}); err != nil {
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			log.Info("auto migration completed")
		}
		return user.NewGormRepository(store.DB), nil
	default:
		return nil, errors.New("store is not connected")
	}
}

// resolveCORSConfig maps the configured CORS settings onto the middleware
// defaults. With no allow-list, release mode denies cross-origin requests and
// other modes allow any origin.
func resolveCORSConfig(mode string, cfg *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()
	if cfg == nil {
		cfg = &config.CORSConfig{}
	}

	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	corsConfig.MaxAge = config.Duration(cfg.MaxAge, corsConfig.MaxAge)

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout, then closes the
// store and the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := a.log()
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if runErr == nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(shutdownCtx); err != nil {
			log.Error("database close error", slog.Any("error", err))
		} else {
			log.Info("database connection closed", slog.String("driver", a.store.Driver))
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

func (a *App) log() *slog.Logger {
	if a.logger != nil && a.logger.Logger != nil {
		return a.logger.Logger
	}
	return slog.Default()
}
