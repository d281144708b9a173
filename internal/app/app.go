package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"taskList/internal/config"
	"taskList/internal/handlers"
	"taskList/internal/logger"
	"taskList/internal/middleware"
	"taskList/internal/migrations"
	"taskList/internal/render"
	"taskList/internal/repository/task/inmemory"
	"taskList/internal/repository/task/postgres"
	"taskList/internal/repository/task/sqlite"
	"taskList/internal/service"
	"taskList/internal/tracing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     http.Handler
	repository service.TaskRepository
	service    *service.TaskService
	limiter    middleware.Limiter
	tracer     trace.TracerProvider
	shutdowns  []func() // run in reverse order on Close
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init wires everything needed to serve HTTP. On failure everything opened
// so far is closed again.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := a.InitStorage(ctx); err != nil {
		return err
	}

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	if err := a.initLimiter(); err != nil {
		return err
	}

	if err := a.initTracing(ctx); err != nil {
		return err
	}

	handler := handlers.NewTaskHandler(a.service, renderer)
	a.router = NewRouter(handler, a.limiter, a.config, a.tracer)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

// InitStorage sets up logging, the repository and the service. CLI commands
// that never serve HTTP stop here.
func (a *App) InitStorage(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Shutting down logger...")
		logger.Sync()
	})

	repo, err := a.initRepository(ctx)
	if err != nil {
		return err
	}
	a.repository = repo
	a.service = service.NewTaskService(repo)
	return nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		dbCfg := a.config.Database
		if dbCfg.AutoMigrate {
			if err := migrations.Up(dbCfg.URL); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		storage, err := postgres.New(ctx, dbCfg.URL, postgres.Options{
			MaxConns:        dbCfg.MaxConnections,
			MinConns:        dbCfg.MinConnections,
			MaxConnIdleTime: dbCfg.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres repository: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		logger.Info("Repository: using postgres")
		return storage, nil

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite repository: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		logger.Info("Repository: using sqlite", zap.String("path", a.config.SQLite.Path))
		return storage, nil

	case config.RepositoryInMemory, "":
		logger.Info("Repository: using in-memory storage, data is lost on exit")
		return inmemory.NewTaskStorage(), nil
	}
	return nil, fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
}

func (a *App) initLimiter() error {
	rl := a.config.RateLimit
	if rl.Backend != config.LimiterRedis {
		a.limiter = middleware.NewMemoryLimiter(rl.RequestsPerMinute, time.Minute)
		return nil
	}

	client, err := middleware.NewRedisClient(a.config.Redis.Addr)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}
	a.shutdowns = append(a.shutdowns, client.Close)
	a.limiter = middleware.NewRedisLimiter(client, a.config.Redis.KeyPrefix, rl.RequestsPerMinute, time.Minute)
	logger.Info("HTTP: rate limit counters in redis", zap.String("addr", a.config.Redis.Addr))
	return nil
}

func (a *App) initTracing(ctx context.Context) error {
	tc := a.config.Tracing
	if !tc.Enabled {
		a.tracer = noop.NewTracerProvider()
		return nil
	}

	exporter, err := tracing.NewExporter(ctx, tc, os.Stdout)
	if err != nil {
		return fmt.Errorf("init trace exporter: %w", err)
	}
	tp, err := tracing.NewProvider(tc, exporter)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return fmt.Errorf("init tracer provider: %w", err)
	}
	tracing.Install(tp)
	a.tracer = tp

	a.shutdowns = append(a.shutdowns, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracing: flushing spans failed", zap.Error(err))
		}
	})
	logger.Info("Tracing: exporting spans",
		zap.String("exporter", tc.Exporter),
		zap.Float64("sample_ratio", tc.SampleRatio))
	return nil
}

func (a *App) Service() *service.TaskService {
	return a.service
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is cancelled or the server fails, then shuts down
// gracefully within server.shutdown_timeout.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
