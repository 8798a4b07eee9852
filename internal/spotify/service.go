// file: internal/spotify/service.go
package spotify

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/schema"
	"github.com/dkoosis/spotignition/internal/services"
)

// ServiceName is the identifier of the Spotify service.
const ServiceName = "spotify"

// Service exposes Spotify track lookups as MCP tools.
type Service struct {
	client    TrackClient
	fetcher   *Fetcher
	validator *schema.ArgumentValidator
	logger    logging.Logger

	mu          sync.Mutex
	initialized bool
}

var _ services.Service = (*Service)(nil)

// NewService creates the service around an injected TrackClient.
// A nil validator gets a fresh one.
func NewService(client TrackClient, validator *schema.ArgumentValidator, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if validator == nil {
		validator = schema.NewArgumentValidator(logger)
	}
	return &Service{
		client:    client,
		fetcher:   NewFetcher(client, logger),
		validator: validator,
		logger:    logger.WithField("service", ServiceName),
	}
}

// GetName implements services.Service.
func (s *Service) GetName() string {
	return ServiceName
}

// Initialize compiles the tool input schemas. It is safe to call more than once.
func (s *Service) Initialize(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	for _, tool := range s.GetTools() {
		if err := schema.ValidateToolName(tool.Name); err != nil {
			return errors.Wrapf(err, "invalid tool name %q", tool.Name)
		}
		if err := s.validator.Register(tool.Name, tool.InputSchema); err != nil {
			return errors.Wrapf(err, "failed to register input schema for %s", tool.Name)
		}
	}
	if !s.IsAuthenticated() {
		s.logger.Warn("Spotify credentials are not configured; lookups will fail.")
	}

	s.initialized = true
	s.logger.Info("Spotify service initialized.", "tools", len(s.GetTools()))
	return nil
}

// Shutdown implements services.Service.
func (s *Service) Shutdown() error {
	s.logger.Debug("Spotify service shutting down.")
	return nil
}

// IsAuthenticated reports whether the client has credentials configured.
func (s *Service) IsAuthenticated() bool {
	return s.client != nil && s.client.HasCredentials()
}
