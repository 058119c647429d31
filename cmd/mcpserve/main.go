// Command mcpserve runs a demonstration capability server over stdio,
// HTTP, or websocket. It registers a small set of tools, resources, and
// prompts and serves them with the full engine pipeline enabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lakeward/mcpserve/protocol"
	"github.com/lakeward/mcpserve/server"
)

func main() {
	var (
		transport = flag.String("transport", "stdio", "transport to serve: stdio, http, or ws")
		addr      = flag.String("addr", ":8080", "listen address for http/ws transports")
		wsPath    = flag.String("ws-path", "/mcp", "websocket endpoint path")
		rateLimit = flag.Int("rate-limit", 0, "per-client requests per minute (0 = unlimited)")
		timeout   = flag.Duration("timeout", 30*time.Second, "per-request handler timeout")
		cors      = flag.String("cors", "", "allowed CORS origin (empty = no CORS headers)")
		apiKey    = flag.String("api-key", "", "require this API key on every request")
	)
	flag.Parse()

	opts := []server.ServerOption{
		server.WithDescription("Demonstration capability server"),
		server.WithVersion("1.0.0"),
		server.WithRequestTimeout(*timeout),
	}
	if *rateLimit > 0 {
		opts = append(opts, server.WithRateLimit(*rateLimit))
	}
	if *cors != "" {
		opts = append(opts, server.WithCORS(*cors))
	}
	if *apiKey != "" {
		key := *apiKey
		opts = append(opts, server.WithAPIKeyValidator(func(candidate string) bool {
			return candidate == key
		}))
	}

	srv := server.Instance("mcpserve", opts...)
	if err := registerCapabilities(srv); err != nil {
		fmt.Fprintf(os.Stderr, "registration failed: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch *transport {
	case "stdio":
		err = server.ServeStdio(srv)
	case "http":
		err = srv.ListenAndServe(*addr)
	case "ws":
		err = srv.ListenAndServeWS(*addr, *wsPath)
	default:
		err = fmt.Errorf("unknown transport %q", *transport)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}

type echoArgs struct {
	Message string `json:"message" description:"Text to echo back" required:"true"`
}

type shoutArgs struct {
	Message string  `json:"message" description:"Text to transform" required:"true"`
	Mode    *string `json:"mode" description:"Transformation to apply" enum:"upper,lower"`
}

func registerCapabilities(srv *server.Server) error {
	if err := server.RegisterTypedTool(srv, "echo", "Echo a message back to the caller",
		func(ctx context.Context, args echoArgs) (interface{}, error) {
			return args.Message, nil
		}); err != nil {
		return err
	}

	if err := server.RegisterTypedTool(srv, "shout", "Upper- or lower-case a message",
		func(ctx context.Context, args shoutArgs) (interface{}, error) {
			if args.Mode != nil && *args.Mode == "lower" {
				return strings.ToLower(args.Message), nil
			}
			return strings.ToUpper(args.Message), nil
		}); err != nil {
		return err
	}

	if err := srv.RegisterResource(protocol.Resource{
		URI:         "doc://readme",
		Name:        "README",
		Description: "About this server",
		MimeType:    "text/markdown",
	}, func(ctx context.Context) (interface{}, error) {
		return "# mcpserve\n\nA demonstration capability server.\n", nil
	}); err != nil {
		return err
	}

	return srv.RegisterPrompt(protocol.Prompt{
		Name:        "greeting",
		Description: "Render a personalized greeting",
		Arguments: []protocol.PromptArgument{
			{Name: "name", Description: "Who to greet", Required: true},
		},
	}, func(ctx context.Context, args map[string]interface{}) ([]protocol.PromptMessage, error) {
		name, _ := args["name"].(string)
		return []protocol.PromptMessage{
			{Role: "user", Content: protocol.NewTextContent(fmt.Sprintf("Please greet %s warmly.", name))},
		}, nil
	})
}
