// Package main はログインシステムのエントリーポイントです。
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yourusername/login-system/internal/auth"
	"github.com/yourusername/login-system/internal/config"
	"github.com/yourusername/login-system/internal/logging"
	"github.com/yourusername/login-system/internal/web"
)

const shutdownTimeout = 10 * time.Second

// overrides はコマンドラインフラグによる設定の上書きです。
type overrides struct {
	port  string
	store string
}

func (o *overrides) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.port, "port", "", "listen port (overrides PORT)")
	fs.StringVar(&o.store, "store", "", "account store: memory, redis, postgres (overrides STORE_DRIVER)")
}

func (o *overrides) apply(cfg *config.Config) {
	if o.port != "" {
		cfg.Port = o.port
	}
	if o.store != "" {
		cfg.StoreDriver = o.store
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags overrides
	cmd := &cobra.Command{
		Use:           "login-system",
		Short:         "Minimal signup / login web service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags.apply(cfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "invalid configuration:", err)
				return err
			}
			logger := logging.Init(cfg.LogLevel, cfg.LogFormat)
			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("server stopped", "error", err)
				return err
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	gin.SetMode(cfg.GinMode)

	secret, err := sessionSecret(cfg, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := auth.NewMetrics(registry)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	sessions := auth.NewSessions(store, auth.SessionOptions{
		MaxLifetime: cfg.SessionMaxAge,
		IdleTimeout: cfg.SessionIdleTTL,
	}, logger)
	handler := web.NewHandler(
		auth.NewRegistrar(store, hasher, metrics, logger),
		auth.NewAuthenticator(store, hasher, metrics, logger),
		sessions,
		logger,
	)

	opts := web.RouterOptions{
		SessionSecret:  secret,
		SessionMaxAge:  sessions.MaxAgeSeconds(),
		SecureCookies:  cfg.IsRelease(),
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
	}
	if cfg.MetricsEnabled {
		opts.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	router, err := web.NewRouter(handler, opts)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "mode", cfg.GinMode, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// sessionSecret は署名鍵を返します。開発モードで未設定なら一時鍵を生成します。
func sessionSecret(cfg *config.Config, logger *slog.Logger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	if cfg.IsRelease() {
		return nil, errors.New("SESSION_SECRET is required in release mode")
	}
	buf := make([]byte, config.MinSessionSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	logger.Warn("SESSION_SECRET is not set; using an ephemeral key, sessions will not survive a restart")
	return []byte(hex.EncodeToString(buf)), nil
}
