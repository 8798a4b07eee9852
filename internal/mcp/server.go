// Package mcp implements the Model Context Protocol server: lifecycle,
// method dispatch and the stdio serve loop.
// file: internal/mcp/server.go
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/config"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/mcp/state"
	"github.com/dkoosis/spotignition/internal/metrics"
	"github.com/dkoosis/spotignition/internal/middleware"
	"github.com/dkoosis/spotignition/internal/services"
	"github.com/dkoosis/spotignition/internal/transport"
)

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// ServerOptions contains configurable options for the MCP server.
type ServerOptions struct {
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Version is reported in serverInfo.
	Version string

	// Debug enables additional debug logging.
	Debug bool
}

// methodHandler processes the params of one MCP method. A nil result is
// returned for notifications.
type methodHandler func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// Server is an MCP server instance handling one client connection.
type Server struct {
	config  *config.Config
	options ServerOptions
	logger  logging.Logger
	metrics *metrics.Collector

	services  []services.Service
	toolOwner map[string]services.Service

	methods      map[string]methodHandler
	notification map[string]methodHandler

	state *state.MCPStateMachine

	transportMu sync.Mutex
	transport   transport.Transport

	shutdownOnce sync.Once
}

// NewServer creates a server for the given services. collector may be nil.
func NewServer(cfg *config.Config, opts ServerOptions, svcs []services.Service, collector *metrics.Collector, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = cfg.Server.RequestTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	if opts.Version == "" {
		opts.Version = "0.1.0-dev"
	}
	log := logger.WithField("component", "mcp_server")

	machine, err := state.NewMCPStateMachine(logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection state machine")
	}

	s := &Server{
		config:       cfg,
		options:      opts,
		logger:       log,
		metrics:      collector,
		toolOwner:    make(map[string]services.Service),
		methods:      make(map[string]methodHandler),
		notification: make(map[string]methodHandler),
		state:        machine,
	}
	for _, svc := range svcs {
		if err := s.RegisterService(svc); err != nil {
			return nil, err
		}
	}
	s.registerMethods()
	return s, nil
}

// RegisterService adds a service and claims its tool names.
func (s *Server) RegisterService(svc services.Service) error {
	if svc == nil {
		return errors.New("cannot register nil service")
	}
	for _, tool := range svc.GetTools() {
		if owner, exists := s.toolOwner[tool.Name]; exists {
			return errors.Newf("tool %q from service %q already registered by %q", tool.Name, svc.GetName(), owner.GetName())
		}
		s.toolOwner[tool.Name] = svc
	}
	s.services = append(s.services, svc)
	s.logger.Info("Registered service.", "service", svc.GetName(), "tools", len(svc.GetTools()))
	return nil
}

func (s *Server) registerMethods() {
	s.methods["initialize"] = s.handleInitialize
	s.methods["ping"] = s.handlePing
	s.methods["tools/list"] = s.handleToolsList
	s.methods["tools/call"] = s.handleToolCall
	s.methods["shutdown"] = s.handleShutdown

	s.notification["notifications/initialized"] = s.handleNotificationsInitialized
	s.notification["notifications/cancelled"] = s.handleNotificationsCancelled
	s.notification["exit"] = s.handleExit
}

// ServeSTDIO serves the MCP protocol over stdin/stdout.
func (s *Server) ServeSTDIO(ctx context.Context) error {
	s.logger.Info("Starting server with stdio transport.")
	return s.Serve(ctx, transport.NewNDJSONTransport(os.Stdin, os.Stdout, os.Stdin, s.logger))
}

// Serve initializes the services and processes messages from t until the
// peer disconnects, the client sends exit, or ctx is cancelled.
// A peer disconnect or exit returns nil.
func (s *Server) Serve(ctx context.Context, t transport.Transport) error {
	s.transportMu.Lock()
	s.transport = t
	s.transportMu.Unlock()

	for _, svc := range s.services {
		if err := svc.Initialize(ctx); err != nil {
			return errors.Wrapf(err, "failed to initialize service %s", svc.GetName())
		}
	}

	chain := middleware.NewChain(s.handleMessage)
	chain.Use(middleware.NewLoggingMiddleware(s.logger, s.metrics))
	chain.Use(middleware.NewRecoveryMiddleware(s.logger))

	err := s.serverProcessing(ctx, chain.Handler())
	if err != nil && transport.IsClosedError(err) {
		s.logger.Info("Client disconnected.")
		return nil
	}
	return err
}

// Shutdown closes the transport and shuts down the services. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var result error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down server.")

		done := make(chan error, 1)
		go func() {
			var errs error
			s.transportMu.Lock()
			t := s.transport
			s.transportMu.Unlock()
			if t != nil {
				if err := t.Close(); err != nil {
					errs = errors.CombineErrors(errs, errors.Wrap(err, "failed to close transport"))
				}
			}
			for _, svc := range s.services {
				if err := svc.Shutdown(); err != nil {
					errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to shut down service %s", svc.GetName()))
				}
			}
			done <- errs
		}()

		timeout := s.options.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		select {
		case result = <-done:
		case <-time.After(timeout):
			result = errors.Newf("shutdown did not finish within %s", timeout)
		case <-ctx.Done():
			result = errors.Wrap(ctx.Err(), "shutdown interrupted")
		}

		if s.metrics != nil {
			s.logger.Info("Server metrics summary.", s.metrics.Snapshot().LogFields()...)
		}
	})
	return result
}

// CurrentState returns the connection lifecycle state.
func (s *Server) CurrentState() string {
	return string(s.state.CurrentState())
}
