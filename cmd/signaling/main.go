package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mossy-p/room-relay/config"
	"github.com/mossy-p/room-relay/internal/handlers"
	"github.com/mossy-p/room-relay/internal/logging"
	"github.com/mossy-p/room-relay/internal/redis"
	"github.com/mossy-p/room-relay/internal/signaling"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts config.Options
	var requireAuth bool

	cmd := &cobra.Command{
		Use:   "signaling",
		Short: "WebRTC room signaling relay",
		Long: `signaling brokers WebRTC handshakes between clients. Clients join rooms over
a WebSocket, learn about each other and exchange session descriptions and ICE
candidates through the relay. Flags override the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("require-auth") {
				opts.RequireAuth = &requireAuth
			}
			cfg, err := config.Load(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "HTTP listen port (env PORT)")
	cmd.Flags().StringVar(&opts.Environment, "env", "", "development or production (env ENVIRONMENT)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	cmd.Flags().StringVar(&opts.RedisHost, "redis-host", "", "mirror presence to this Redis host (env REDIS_HOST with REDIS_ENABLED)")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "require a JWT on the signaling socket (env REQUIRE_AUTH)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayCfg := signaling.RelayConfig{
		QueueSize: cfg.Signaling.QueueSize,
		Logger:    logger,
	}

	if cfg.Redis.Enabled {
		presence, err := redis.Connect(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer presence.Close()
		go presence.Run(ctx)
		relayCfg.Presence = presence
		logger.Info("Redis presence mirror enabled", "addr", cfg.Redis.Addr())
	}

	conns := handlers.NewConnections()
	relay := signaling.NewRelay(conns, relayCfg)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(cfg, relay, conns),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting WebRTC signaling relay", "port", cfg.Port, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		cancel()
		<-relayDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	err := srv.Shutdown(shutdownCtx)
	<-relayDone
	logger.Info("relay stopped", "peers", conns.Len())
	return err
}
