package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/castenv"
	"github.com/eugenenazirov/castenv/internal/api"
	"github.com/eugenenazirov/castenv/internal/config"
	"github.com/eugenenazirov/castenv/source"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	env     *castenv.Context
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// NewContext builds the resolution context described by cfg. An explicit
// provider file must load; a detected one is used only when it loads.
func NewContext(cfg config.Config, logger *zap.Logger) (*castenv.Context, error) {
	opts := []castenv.Option{
		castenv.WithConfig(cfg.Source),
		castenv.WithLogger(logger),
	}

	switch {
	case !cfg.Source.UseProviderIfAvailable:
	case cfg.ProviderINI != "":
		provider, err := source.LoadINI(cfg.ProviderINI, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load provider: %w", err)
		}
		logger.Debug("provider loaded", zap.String("path", provider.Path()))
		opts = append(opts, castenv.WithProvider(provider))
	case cfg.DetectProvider:
		opts = append(opts, castenv.DetectProvider())
	}

	return castenv.New(opts...), nil
}

// New initializes the inspector application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	env, err := NewContext(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(env)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		env:     env,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and answers every other path with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Env returns the resolution context served by the application.
func (a *App) Env() *castenv.Context {
	return a.env
}
