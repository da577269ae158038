package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ZanzyTHEbar/clearance-scorer/internal/config"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/monitoring"
	"github.com/gin-gonic/gin"
)

func main() {
	logger := monitoring.NewLogger()
	slog.SetDefault(logger.Logger)

	cfg, err := config.Load(os.Getenv("SCORER_CONFIG"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(monitoring.ParseLevel(cfg.Log.Level))
	gin.SetMode(cfg.Server.Mode)

	s := newServer(cfg, logger)
	defer s.Close()

	r, err := s.router()
	if err != nil {
		slog.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	port := strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("Starting server", "port", port, "mode", cfg.Server.Mode, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server exited", "sessions_open", s.sessions.Len())
}
