// Package server wires configuration, the Spotify client and the MCP server
// together and manages the process lifecycle, including signal handling and
// graceful shutdown.
// file: cmd/server/server_runner.go
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/config"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/mcp"
	"github.com/dkoosis/spotignition/internal/metrics"
	"github.com/dkoosis/spotignition/internal/schema"
	"github.com/dkoosis/spotignition/internal/services"
	"github.com/dkoosis/spotignition/internal/spotify"
)

// errorBufferSize is the number of recent errors kept by the metrics collector.
const errorBufferSize = 50

// RunServer loads configuration, builds the Spotify track service and serves
// MCP over stdio until the client disconnects or a termination signal arrives.
func RunServer(configPath, version string, o Overrides) error {
	startTime := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	bootLogger := logging.GetLogger("server_runner")
	cfg, err := loadConfiguration(configPath, o, bootLogger)
	if err != nil {
		return err
	}

	logging.SetupLogger(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	logger := logging.GetLogger("server_runner")
	logger.Info("Starting Spotignition server.",
		"version", version,
		"config_path", configPath,
		"request_timeout", cfg.Server.RequestTimeout.String(),
		"shutdown_timeout", cfg.Server.ShutdownTimeout.String(),
		"log_file", cfg.Logging.File)

	collector := metrics.NewCollector(errorBufferSize)

	trackService, err := initializeSpotifyService(cfg, collector, logger)
	if err != nil {
		return err
	}

	opts := mcp.ServerOptions{
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Version:         version,
		Debug:           logging.IsDebugEnabled(),
	}
	server, err := mcp.NewServer(cfg, opts, []services.Service{trackService}, collector, logger)
	if err != nil {
		logger.Error("Failed to create MCP server.", "error", err.Error())
		return errors.Wrap(err, "failed to create MCP server")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ServeSTDIO(ctx)
	}()
	logger.Info("Server startup complete, serving on stdio.",
		"startup_time_ms", time.Since(startTime).Milliseconds())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("Received termination signal.", "signal", sig.String())
		cancel()
	case runErr = <-serveErr:
		if runErr != nil {
			logger.Error("Server stopped with error.", "error", fmt.Sprintf("%+v", runErr))
		} else {
			logger.Info("Client disconnected, stopping server.")
		}
	}

	performGracefulShutdown(cfg.Server.ShutdownTimeout, server, startTime, logger)
	return runErr
}

// initializeSpotifyService builds token storage, rate limiter and Web API
// client, then wraps them in the MCP track service.
func initializeSpotifyService(cfg *config.Config, collector *metrics.Collector, logger logging.Logger) (*spotify.Service, error) {
	tokenPath, err := config.ExpandPath(cfg.Auth.TokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand token path")
	}

	storage, err := spotify.NewTokenStorage(cfg.Spotify.ClientID, tokenPath, cfg.Auth.DisableKeyring,
		logging.GetLogger("token_storage"))
	if err != nil {
		logger.Warn("Token cache unavailable, tokens will not persist across runs.", "error", err)
		storage = nil
	}

	client, err := spotify.NewWebClient(spotify.WebClientOptions{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		Market:       cfg.Spotify.Market,
		BaseURL:      cfg.Spotify.BaseURL,
		Storage:      storage,
		RateLimiter:  spotify.NewRateLimiter(cfg.Spotify.RequestsPerSecond, burstFor(cfg.Spotify.RequestsPerSecond)),
		Metrics:      collector,
		Logger:       logging.GetLogger("spotify"),
	})
	if err != nil {
		logger.Error("Failed to create Spotify client.", "error", err.Error())
		return nil, errors.Wrap(err, "failed to create Spotify client")
	}

	validator := schema.NewArgumentValidator(logging.GetLogger("schema"))
	return spotify.NewService(client, validator, logging.GetLogger("spotify_service")), nil
}

// burstFor allows roughly one second of requests to go out back to back.
func burstFor(rate float64) int {
	if rate < 1 {
		return 1
	}
	return int(rate)
}

// performGracefulShutdown stops the server within timeout and logs the run duration.
func performGracefulShutdown(timeout time.Duration, server *mcp.Server, startTime time.Time, logger logging.Logger) {
	logger.Info("Shutting down server gracefully.", "timeout", timeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error.", "error", err.Error())
	}
	logger.Info("Server shutdown complete.",
		"run_duration", time.Since(startTime).Round(time.Millisecond).String())
}
