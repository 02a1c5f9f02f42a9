// Command glimpse-web serves the image chat in a browser.
//
// Usage:
//
//	GOOGLE_API_KEY=... glimpse-web [-config glimpse.yaml] [-provider gemini] [-model id]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/glimpse"
	glimpsefs "github.com/fwojciec/glimpse/fs"
	"github.com/fwojciec/glimpse/internal/config"
	"github.com/fwojciec/glimpse/internal/logging"
	"github.com/fwojciec/glimpse/internal/provider"
	"github.com/fwojciec/glimpse/web"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "glimpse-web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "", "Path to a YAML config file")
		providerFlag = flag.String("provider", "", "Provider: gemini, anthropic, ollama")
		model        = flag.String("model", "", "Model ID (provider-specific)")
		apiKey       = flag.String("api-key", "", "API key of the selected provider")
		secure       = flag.Bool("secure-cookie", false, "Mark the session cookie Secure (HTTPS only)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(*configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	provider.ApplyFlags(cfg, *providerFlag, *model, *apiKey)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := provider.Resolve(ctx, cfg, logger)
	if err != nil {
		return err
	}
	relay := glimpse.NewRelay(p, glimpse.WithMaxTokens(cfg.MaxTokens))

	opts := []web.Option{
		web.WithLogger(logger),
		web.WithMaxImageBytes(cfg.MaxImageBytes),
		web.WithSecureCookie(*secure),
	}
	if cfg.ImageDir != "" {
		store, err := glimpsefs.NewStore(cfg.ImageDir)
		if err != nil {
			return err
		}
		opts = append(opts, web.WithStore(store))
	}

	sessions := web.NewSessions(cfg.SessionTTL)
	go sessions.RunSweeper(ctx, sweepInterval(cfg.SessionTTL), logger)

	handler := web.NewServer(relay, sessions, opts...)
	// WriteTimeout stays 0: answers stream over long-lived websockets.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("provider", cfg.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	handler.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepInterval checks for idle sessions a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}
