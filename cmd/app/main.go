package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow_go/internal/app"
	"escrow_go/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// Pprof server, localhost only.
	go func() {
		slog.Info("pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notification feed + health endpoint.
	mux := http.NewServeMux()
	mux.Handle("/ws", bootstrap.Feed)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Paused      bool           `json:"paused"`
			Subscribers int            `json:"subscribers"`
			Metrics     infra.Snapshot `json:"metrics"`
		}{
			Paused:      bootstrap.Governor.Paused(),
			Subscribers: bootstrap.Feed.ClientCount(),
			Metrics:     infra.GlobalMetrics.Stats(),
		})
	})

	srv := &http.Server{
		Addr:    bootstrap.Config.Feed.ListenAddr,
		Handler: mux,
	}
	go func() {
		slog.Info("feed server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("feed server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("feed server shutdown", slog.Any("error", err))
	}
	if err := bootstrap.Storage.Close(); err != nil {
		slog.Warn("storage close", slog.Any("error", err))
	}
}
