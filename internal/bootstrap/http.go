package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/loftsec/wicket/config"
	httpx "github.com/loftsec/wicket/internal/http"
	"github.com/loftsec/wicket/internal/ports"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Auth     *AuthStack
	Articles ports.ArticleRepository
	Logger   *slog.Logger
}

// StartHTTPServer builds the router and starts the HTTP server.
// Route binding validates capability names against the gate registry, so an
// error here must abort startup rather than be logged and ignored.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	services := httpx.RouterServices{
		Articles:     cfg.Articles,
		Credentials:  cfg.Auth.Verifier,
		Sessions:     cfg.Auth.Sessions,
		Guard:        cfg.Auth.Guard,
		Gates:        cfg.Auth.Gates,
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		IsDev:        cfg.Config.IsDev,
		Logger:       logger,
	}

	handler, err := buildHTTPHandler(logger, services)
	if err != nil {
		return nil, err
	}

	return startServer(logger, handler, cfg.Config.HTTP), nil
}

func buildHTTPHandler(logger *slog.Logger, services httpx.RouterServices) (http.Handler, error) {
	router, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)

	return h, nil
}

func startServer(logger *slog.Logger, handler http.Handler, httpCfg config.HTTPConfig) *http.Server {
	addr := httpCfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("HTTP server stopped")
	return nil
}
