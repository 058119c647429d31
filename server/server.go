// Package server implements the capability-exposure protocol engine: named
// server instances publishing tools, resources, and prompt templates to
// clients over JSON-RPC 2.0, with authentication, rate limiting, and usage
// statistics.
package server

import (
	"fmt"
	"time"

	"github.com/lakeward/mcpserve/auth"
	"github.com/lakeward/mcpserve/logx"
	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/types"
	"github.com/lakeward/mcpserve/util/schema"
)

// DefaultRequestTimeout bounds handler execution when no explicit timeout
// is configured.
const DefaultRequestTimeout = 30 * time.Second

// DefaultMaxBodySize caps inbound HTTP request bodies.
const DefaultMaxBodySize = 4 << 20 // 4 MiB

// Server is one named protocol engine instance. It owns the tool, resource,
// and prompt registries, the statistics collector, and the rate limiter.
// All methods are safe for concurrent use, including registry mutation
// while requests are in flight.
type Server struct {
	name        string
	description string
	version     string

	logger types.Logger

	corsOrigin     string
	access         accessControl
	maxBodySize    int64
	requestTimeout time.Duration
	statsEnabled   bool

	tools     *registry[*toolEntry]
	resources *registry[*resourceEntry]
	prompts   *registry[*promptEntry]

	stats   *Statistics
	limiter *rateLimiter

	sessions *sessionSet
}

// ServerOption configures a Server during construction.
type ServerOption func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger types.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDescription sets the human-readable instance description.
func WithDescription(description string) ServerOption {
	return func(s *Server) { s.description = description }
}

// WithVersion sets the advertised server version string.
func WithVersion(version string) ServerOption {
	return func(s *Server) { s.version = version }
}

// WithCORS sets the allowed origin reflected in the
// Access-Control-Allow-Origin header on every HTTP response, including
// errors. An empty origin emits no CORS header at all.
func WithCORS(origin string) ServerOption {
	return func(s *Server) { s.corsOrigin = origin }
}

// WithBasicAuth requires HTTP Basic credentials on every request.
func WithBasicAuth(username, password string) ServerOption {
	return func(s *Server) {
		s.access.basicUser = username
		s.access.basicPass = password
	}
}

// WithAPIKeyValidator installs a pluggable API-key check. The key is read
// from the X-API-Key header or an Authorization bearer value.
func WithAPIKeyValidator(validator auth.APIKeyValidator) ServerOption {
	return func(s *Server) { s.access.apiKeyValidator = validator }
}

// WithTokenValidator installs a bearer-token validator (e.g. the JWKS JWT
// validator from the auth package).
func WithTokenValidator(validator auth.TokenValidator) ServerOption {
	return func(s *Server) { s.access.tokenValidator = validator }
}

// WithRateLimit caps requests per client per minute. Zero disables the
// limiter.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) { s.limiter = newRateLimiter(perMinute) }
}

// WithRequestTimeout bounds each handler execution. Exceeding it produces
// a timeout error response; the handler itself is cancelled cooperatively
// via its context.
func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		if timeout > 0 {
			s.requestTimeout = timeout
		}
	}
}

// WithMaxBodySize caps inbound HTTP request bodies in bytes.
func WithMaxBodySize(limit int64) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.maxBodySize = limit
		}
	}
}

// WithStats toggles statistics collection. Enabled by default.
func WithStats(enabled bool) ServerOption {
	return func(s *Server) { s.statsEnabled = enabled }
}

// WithDuplicatePolicy selects how registries treat re-registration of an
// existing name. The default is overwrite (last write wins).
func WithDuplicatePolicy(policy DuplicatePolicy) ServerOption {
	return func(s *Server) {
		s.tools.policy = policy
		s.resources.policy = policy
		s.prompts.policy = policy
	}
}

// NewServer creates a standalone Server. Most callers should use Instance
// to participate in the process-wide named registry instead.
func NewServer(name string, opts ...ServerOption) *Server {
	srv := &Server{
		name:           name,
		version:        "0.1.0",
		logger:         logx.NewDefaultLogger(),
		maxBodySize:    DefaultMaxBodySize,
		requestTimeout: DefaultRequestTimeout,
		statsEnabled:   true,
		tools:          newRegistry[*toolEntry](OverwriteDuplicates),
		resources:      newRegistry[*resourceEntry](OverwriteDuplicates),
		prompts:        newRegistry[*promptEntry](OverwriteDuplicates),
		stats:          NewStatistics(),
		limiter:        newRateLimiter(0),
		sessions:       newSessionSet(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.logger.Info("server %q created", name)
	return srv
}

// Name returns the instance name.
func (s *Server) Name() string { return s.name }

// Stats returns a snapshot of the usage statistics.
func (s *Server) Stats() StatsSnapshot { return s.stats.Snapshot() }

// CORSOrigin returns the configured allowed origin ("" when CORS is off).
func (s *Server) CORSOrigin() string { return s.corsOrigin }

// capabilities describes what this instance advertises during initialize.
func (s *Server) capabilities() protocol.ServerCapabilities {
	caps := protocol.ServerCapabilities{}
	caps.Tools = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{ListChanged: true}
	caps.Resources = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{ListChanged: true}
	caps.Prompts = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{ListChanged: true}
	return caps
}

// --- Registration ---

// RegisterTool stores a tool definition with its handler. The input schema
// is compiled once here so invocation-time validation is cheap.
func (s *Server) RegisterTool(tool protocol.Tool, handler ToolHandlerFunc) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for tool %q cannot be nil", tool.Name)
	}
	compiled, err := schema.Compile(tool.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %q: %w", tool.Name, err)
	}
	if err := s.tools.register(tool.Name, &toolEntry{def: tool, handler: handler, compiled: compiled}); err != nil {
		return err
	}
	s.logger.Info("registered tool: %s", tool.Name)
	s.notifyListChanged(protocol.MethodNotifyToolsListChanged)
	return nil
}

// RemoveTool deletes a tool; a no-op if the name is unknown.
func (s *Server) RemoveTool(name string) {
	if s.tools.remove(name) {
		s.logger.Info("removed tool: %s", name)
		s.notifyListChanged(protocol.MethodNotifyToolsListChanged)
	}
}

// RegisterResource stores a resource definition with its zero-argument
// content producer. Resources are keyed by URI.
func (s *Server) RegisterResource(resource protocol.Resource, handler ResourceHandlerFunc) error {
	if resource.URI == "" {
		return fmt.Errorf("resource URI cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for resource %q cannot be nil", resource.URI)
	}
	if err := s.resources.register(resource.URI, &resourceEntry{def: resource, handler: handler}); err != nil {
		return err
	}
	s.logger.Info("registered resource: %s", resource.URI)
	s.notifyListChanged(protocol.MethodNotifyResourcesListChanged)
	return nil
}

// RemoveResource deletes a resource; a no-op if the URI is unknown.
func (s *Server) RemoveResource(uri string) {
	if s.resources.remove(uri) {
		s.logger.Info("removed resource: %s", uri)
		s.notifyListChanged(protocol.MethodNotifyResourcesListChanged)
	}
}

// RegisterPrompt stores a prompt template with its renderer.
func (s *Server) RegisterPrompt(prompt protocol.Prompt, handler PromptHandlerFunc) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for prompt %q cannot be nil", prompt.Name)
	}
	if err := s.prompts.register(prompt.Name, &promptEntry{def: prompt, handler: handler}); err != nil {
		return err
	}
	s.logger.Info("registered prompt: %s", prompt.Name)
	s.notifyListChanged(protocol.MethodNotifyPromptsListChanged)
	return nil
}

// RemovePrompt deletes a prompt; a no-op if the name is unknown.
func (s *Server) RemovePrompt(name string) {
	if s.prompts.remove(name) {
		s.logger.Info("removed prompt: %s", name)
		s.notifyListChanged(protocol.MethodNotifyPromptsListChanged)
	}
}

// clearAll empties every registry and the statistics. Used by Rebuild.
func (s *Server) clearAll() {
	s.tools.clear()
	s.resources.clear()
	s.prompts.clear()
	s.stats.Reset()
	s.limiter.reset()
}

// notifyListChanged broadcasts a list_changed notification to connected
// sessions. Fire-and-forget: registration must not block on slow clients.
func (s *Server) notifyListChanged(method string) {
	if s.sessions.empty() {
		return
	}
	notif := protocol.NewNotification(method, struct{}{})
	go s.sessions.broadcast(s.logger, notif)
}
