// Package mcpserver exposes the ticket operations as MCP tools and resources.
// It is the composition point between the facade and the go-sdk server; no
// business logic lives here.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/matiasleandrokruk/relengjira/internal/domain/ticket"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerName is announced to clients during initialization.
const ServerName = "Releng jira Server"

const greetingScheme = "greeting://"

// Options configures New.
type Options struct {
	Version  string
	Logger   *slog.Logger     // nil = slog.Default()
	Products []ticket.Product // nil = the embedded catalog
}

// New builds the MCP server with every tool and resource registered.
func New(tickets Tickets, opts Options) (*mcp.Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Products == nil {
		opts.Products = ticket.Products()
	}

	s := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: opts.Version}, nil)

	registerTools(s, &toolset{tickets: tickets, logger: opts.Logger}, opts.Products)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "greeting",
		URITemplate: greetingScheme + "{name}",
		Description: "Get a personalized greeting",
		MIMEType:    "text/plain",
	}, readGreeting)

	return s, nil
}

// HTTPHandler serves s over the streamable HTTP transport.
func HTTPHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

// RunStdio serves s on stdin/stdout until ctx is done or the client disconnects.
func RunStdio(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func readGreeting(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name, err := url.PathUnescape(strings.TrimPrefix(uri, greetingScheme))
	if err != nil || !strings.HasPrefix(uri, greetingScheme) || name == "" {
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Hello, %s!", name),
		}},
	}, nil
}
