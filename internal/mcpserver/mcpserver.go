package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the aiready analysis tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all aiready tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "aiready",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect_patterns",
		Description: describeDetectPatterns(),
	}, handleDetectPatterns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "estimate_context",
		Description: describeEstimateContext(),
	}, handleEstimateContext)
}
