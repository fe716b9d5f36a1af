package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/caopengau/aiready/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes aiready's
analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "aiready": {
        "command": "aiready",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - detect_patterns    Near-duplicate pattern detection with token cost
  - estimate_context   Token footprint estimation for LLM context budgeting`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
