package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lakeward/mcpserve/auth"
	"github.com/lakeward/mcpserve/protocol"
)

// HandleMessage runs one inbound payload through the full pipeline:
// envelope validation, authentication, rate limiting, routing, handler
// invocation, and statistics. The payload may be a single JSON-RPC message
// or a batch array. The returned slice holds one response per request in
// the payload; it is nil when the payload contained only notifications.
func (s *Server) HandleMessage(ctx context.Context, raw []byte, meta RequestMeta) []*protocol.JSONRPCResponse {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return s.handleBatch(ctx, trimmed, meta)
	}
	if resp := s.handleSingle(ctx, raw, meta); resp != nil {
		return []*protocol.JSONRPCResponse{resp}
	}
	return nil
}

// handleBatch processes a JSON-RPC batch array. An empty array is itself
// an invalid request; individual elements succeed or fail independently.
func (s *Server) handleBatch(ctx context.Context, raw []byte, meta RequestMeta) []*protocol.JSONRPCResponse {
	var messages []json.RawMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		s.record("", 0, protocol.ErrorCodeParseError)
		return []*protocol.JSONRPCResponse{errorResponse(nil, protocol.NewError(protocol.ErrorCodeParseError, nil))}
	}
	if len(messages) == 0 {
		s.record("", 0, protocol.ErrorCodeInvalidRequest)
		return []*protocol.JSONRPCResponse{errorResponse(nil, protocol.NewError(protocol.ErrorCodeInvalidRequest, nil))}
	}
	var responses []*protocol.JSONRPCResponse
	for _, msg := range messages {
		if resp := s.handleSingle(ctx, msg, meta); resp != nil {
			responses = append(responses, resp)
		}
	}
	return responses
}

// handleSingle validates and dispatches one message. Returns nil for
// notifications, which never produce a response even on failure.
func (s *Server) handleSingle(ctx context.Context, raw []byte, meta RequestMeta) *protocol.JSONRPCResponse {
	started := time.Now()

	req, errResp := normalizeMessage(raw, meta)
	if errResp != nil {
		s.record("", time.Since(started), errResp.Error.Code)
		return errResp
	}

	isNotification := req.IsNotification()

	// Authentication runs before the rate limiter so unauthenticated
	// traffic cannot consume a client's quota.
	if s.access.enabled() {
		principal, authErr := s.access.authenticate(ctx, req.Meta)
		if authErr != nil {
			s.record(req.Method, time.Since(started), authErr.Code)
			if isNotification {
				return nil
			}
			return errorResponse(req.ID, authErr)
		}
		if principal != nil {
			ctx = auth.ContextWithPrincipal(ctx, principal)
		}
	}

	if !s.limiter.allow(meta.ClientKey) {
		s.record(req.Method, time.Since(started), protocol.ErrorCodeRateLimitExceeded)
		if isNotification {
			return nil
		}
		return errorResponse(req.ID, protocol.NewError(protocol.ErrorCodeRateLimitExceeded, nil))
	}

	result, mcpErr := s.route(ctx, req)

	if mcpErr != nil {
		s.record(req.Method, time.Since(started), mcpErr.Code)
		if isNotification {
			s.logger.Debug("notification %s failed: %v", req.Method, mcpErr)
			return nil
		}
		return errorResponse(req.ID, mcpErr)
	}

	s.record(req.Method, time.Since(started), 0)
	if isNotification {
		return nil
	}
	return successResponse(req.ID, result)
}

// route dispatches a validated request to its method handler.
func (s *Server) route(ctx context.Context, req *CanonicalRequest) (interface{}, *protocol.MCPError) {
	switch req.Method {
	case protocol.MethodInitialize:
		return s.handleInitialize(req)
	case protocol.MethodInitialized, protocol.MethodPing:
		// Ping replies with an empty result; initialized is a pure ack.
		return struct{}{}, nil
	case protocol.MethodListTools:
		return s.handleListTools()
	case protocol.MethodCallTool:
		return s.handleCallTool(ctx, req)
	case protocol.MethodListResources:
		return s.handleListResources()
	case protocol.MethodReadResource:
		return s.handleReadResource(ctx, req)
	case protocol.MethodListPrompts:
		return s.handleListPrompts()
	case protocol.MethodGetPrompt:
		return s.handleGetPrompt(ctx, req)
	default:
		return nil, protocol.NewMethodNotFoundError(req.Method)
	}
}

func (s *Server) handleInitialize(req *CanonicalRequest) (interface{}, *protocol.MCPError) {
	var params protocol.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, protocol.NewInvalidParamsError(err.Error())
		}
	}
	s.logger.Info("initialize from client %s %s", params.ClientInfo.Name, params.ClientInfo.Version)
	return &protocol.InitializeResult{
		ProtocolVersion: protocol.CurrentProtocolVersion,
		Capabilities:    s.capabilities(),
		ServerInfo: protocol.Implementation{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: s.description,
	}, nil
}

func (s *Server) handleListTools() (interface{}, *protocol.MCPError) {
	entries := s.tools.list()
	tools := make([]protocol.Tool, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, e.def)
	}
	return &protocol.ListToolsResult{Tools: tools}, nil
}

func (s *Server) handleCallTool(ctx context.Context, req *CanonicalRequest) (interface{}, *protocol.MCPError) {
	var params protocol.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParamsError(err.Error())
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidParamsError("tool name is required")
	}
	entry, ok := s.tools.get(params.Name)
	if !ok {
		return nil, protocol.NewMethodNotFoundError(fmt.Sprintf("tool %q", params.Name))
	}
	if entry.compiled != nil {
		if err := entry.compiled.Validate(params.Arguments); err != nil {
			return nil, protocol.NewInvalidParamsError(err.Error())
		}
	}

	value, mcpErr := s.invoke(ctx, func(ctx context.Context) (interface{}, error) {
		return entry.handler(ctx, params.Arguments)
	})
	if mcpErr != nil {
		return nil, mcpErr
	}
	s.stats.RecordToolCall(params.Name)

	result, convErr := toolResultFromValue(value)
	if convErr != nil {
		return nil, protocol.NewErrorWithMessage(protocol.ErrorCodeInternalError, protocol.DefaultMessage(protocol.ErrorCodeInternalError), convErr.Error())
	}
	return result, nil
}

func (s *Server) handleListResources() (interface{}, *protocol.MCPError) {
	entries := s.resources.list()
	resources := make([]protocol.Resource, 0, len(entries))
	for _, e := range entries {
		resources = append(resources, e.def)
	}
	return &protocol.ListResourcesResult{Resources: resources}, nil
}

func (s *Server) handleReadResource(ctx context.Context, req *CanonicalRequest) (interface{}, *protocol.MCPError) {
	var params protocol.ReadResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParamsError(err.Error())
	}
	if params.URI == "" {
		return nil, protocol.NewInvalidParamsError("resource URI is required")
	}
	entry, ok := s.resources.get(params.URI)
	if !ok {
		return nil, protocol.NewMethodNotFoundError(fmt.Sprintf("resource %q", params.URI))
	}

	value, mcpErr := s.invoke(ctx, func(ctx context.Context) (interface{}, error) {
		return entry.handler(ctx)
	})
	if mcpErr != nil {
		return nil, mcpErr
	}

	contents, convErr := resourceContentsFromValue(entry.def, value)
	if convErr != nil {
		return nil, protocol.NewErrorWithMessage(protocol.ErrorCodeInternalError, protocol.DefaultMessage(protocol.ErrorCodeInternalError), convErr.Error())
	}
	return &protocol.ReadResourceResult{Contents: contents}, nil
}

func (s *Server) handleListPrompts() (interface{}, *protocol.MCPError) {
	entries := s.prompts.list()
	prompts := make([]protocol.Prompt, 0, len(entries))
	for _, e := range entries {
		prompts = append(prompts, e.def)
	}
	return &protocol.ListPromptsResult{Prompts: prompts}, nil
}

func (s *Server) handleGetPrompt(ctx context.Context, req *CanonicalRequest) (interface{}, *protocol.MCPError) {
	var params protocol.GetPromptParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParamsError(err.Error())
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidParamsError("prompt name is required")
	}
	entry, ok := s.prompts.get(params.Name)
	if !ok {
		return nil, protocol.NewMethodNotFoundError(fmt.Sprintf("prompt %q", params.Name))
	}
	for _, arg := range entry.def.Arguments {
		if arg.Required {
			if _, present := params.Arguments[arg.Name]; !present {
				return nil, protocol.NewInvalidParamsError(fmt.Sprintf("missing required argument %q", arg.Name))
			}
		}
	}

	value, mcpErr := s.invoke(ctx, func(ctx context.Context) (interface{}, error) {
		return entry.handler(ctx, params.Arguments)
	})
	if mcpErr != nil {
		return nil, mcpErr
	}
	messages, ok := value.([]protocol.PromptMessage)
	if !ok {
		return nil, protocol.NewErrorWithMessage(protocol.ErrorCodeInternalError, "prompt handler returned unexpected type", nil)
	}
	return &protocol.GetPromptResult{
		Description: entry.def.Description,
		Messages:    messages,
	}, nil
}

// invoke runs a handler with panic recovery and the configured timeout.
// The handler's context is cancelled on timeout; a handler that ignores
// cancellation keeps its goroutine until it returns on its own.
func (s *Server) invoke(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, *protocol.MCPError) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	type outcome struct {
		value interface{}
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panic: %v", r)
				done <- outcome{err: protocol.NewErrorWithMessage(
					protocol.ErrorCodeInternalError,
					protocol.DefaultMessage(protocol.ErrorCodeInternalError),
					fmt.Sprintf("handler panic: %v", r),
				)}
			}
		}()
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if mcpErr, ok := out.err.(*protocol.MCPError); ok {
				return nil, mcpErr
			}
			return nil, protocol.NewErrorWithMessage(
				protocol.ErrorCodeInternalError,
				protocol.DefaultMessage(protocol.ErrorCodeInternalError),
				out.err.Error(),
			)
		}
		return out.value, nil
	case <-ctx.Done():
		// The timeout code is reserved for deadline expiry. A parent
		// context cancelled mid-flight (client disconnect, shutdown) is
		// not a timeout.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, protocol.NewError(protocol.ErrorCodeTimeout, nil)
		}
		return nil, protocol.NewErrorWithMessage(
			protocol.ErrorCodeInternalError,
			protocol.DefaultMessage(protocol.ErrorCodeInternalError),
			"request cancelled",
		)
	}
}

// record registers one request outcome in the statistics when enabled.
// code 0 means success.
func (s *Server) record(method string, latency time.Duration, code protocol.ErrorCode) {
	if !s.statsEnabled {
		return
	}
	if code != 0 {
		s.stats.RecordRequest(method, latency, &code)
		return
	}
	s.stats.RecordRequest(method, latency, nil)
}
