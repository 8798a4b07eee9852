// file: cmd/server/server_config.go
package server

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/config"
	"github.com/dkoosis/spotignition/internal/logging"
)

// Overrides holds command-line values layered over the loaded configuration.
// Zero values leave the configuration untouched.
type Overrides struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	Market          string
	LogLevel        string
	Debug           bool
}

// loadConfiguration loads configPath (or defaults), applies overrides and validates the result.
func loadConfiguration(configPath string, o Overrides, logger logging.Logger) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	applyOverrides(cfg, o)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration is invalid.",
			"error", err.Error(),
			"advice", "Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET or run 'spotignition setup'.")
		return nil, err
	}

	logger.Info("Configuration ready.",
		"server_name", cfg.Server.Name,
		"client_id", maskCredential(cfg.Spotify.ClientID),
		"market", cfg.Spotify.Market,
		"requests_per_second", cfg.Spotify.RequestsPerSecond,
		"request_timeout", cfg.Server.RequestTimeout.String())
	return cfg, nil
}

func applyOverrides(cfg *config.Config, o Overrides) {
	if o.RequestTimeout > 0 {
		cfg.Server.RequestTimeout = o.RequestTimeout
	}
	if o.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = o.ShutdownTimeout
	}
	if o.Market != "" {
		cfg.Spotify.Market = o.Market
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Debug {
		cfg.Logging.Level = logging.LevelDebug
	}
}

// maskCredential hides all but the first and last two characters.
func maskCredential(cred string) string {
	if len(cred) < 6 {
		return "****"
	}
	return cred[:2] + "****" + cred[len(cred)-2:]
}
