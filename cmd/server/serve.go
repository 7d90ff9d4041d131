package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/WatchParty/internal/adapters/auth"
	router "github.com/dkeye/WatchParty/internal/adapters/http"
	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WebSocket server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN, storage.Options{BusyTimeout: cfg.DB.BusyTimeout})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	hub := orch.New(store, log.With().Str("module", "app.orch").Logger(), orch.Options{
		InboxSize:   cfg.Hub.InboxSize,
		IdleTTL:     cfg.Hub.IdleTTL,
		SweepPeriod: cfg.Hub.SweepPeriod,
		Policy:      app.PolicyByName(cfg.Hub.Backpressure),
	})
	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	r := router.SetupRouter(ctx, cfg, hub, auth.NewJWTVerifier(cfg.JWTSecret))
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("db", cfg.DB.Driver).Msg("WatchParty server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.CloseAll()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Hub.DrainTimeout)
	defer drainCancel()
	if err := hub.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("pending writes abandoned")
	}
	stopHub()
	<-hubDone

	log.Info().Msg("Server exited gracefully")
	return nil
}
