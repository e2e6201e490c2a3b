// Package mcpserver exposes the dgtscan pipeline over the Model Context
// Protocol (stdio transport): one tool to extract structured vehicle data from
// report text, one to run the full rule pipeline. Both tools are pure —
// everything happens over the supplied text, nothing is stored.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/caeworks/dgtscan/internal/parse"
	"github.com/caeworks/dgtscan/internal/rules"
)

// ServerConfig holds the MCP server wiring.
type ServerConfig struct {
	Version string
	// DefaultClient is the configured client filter applied when a tool call
	// does not carry its own.
	DefaultClient string
	Policy        rules.Policy
}

// NewServer creates a configured MCP server with the dgtscan tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"dgtscan",
		ver,
		server.WithToolCapabilities(false),
	)

	registerParseTool(s)
	registerProcessTool(s, cfg)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerParseTool(s *server.MCPServer) {
	tool := mcp.NewTool("dgtscan_parse",
		mcp.WithDescription("Extract structured vehicle data (identification, titleholder, lease state, ownership/lease/inspection/deregistration history) from the flattened text of a DGT vehicle report."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Full concatenated page text of one report"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		data, err := parse.New().Parse(text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse error: %v", err)), nil
		}

		out, _ := json.MarshalIndent(data, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	})
}

func registerProcessTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("dgtscan_process",
		mcp.WithDescription("Run the full pipeline over one report text: extraction, client eligibility, regulatory commentary, and mileage projection. Returns the processed result with metrics and commentary."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Full concatenated page text of one report"),
		),
		mcp.WithString("client",
			mcp.Description("Client identifier for eligibility filtering; empty processes the vehicle unconditionally"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		client := cfg.DefaultClient
		if c, err := req.RequireString("client"); err == nil && c != "" {
			client = c
		}

		data, err := parse.New().Parse(text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse error: %v", err)), nil
		}

		engine := rules.NewEngine(client, rules.WithPolicy(cfg.Policy))
		res := engine.Process(data)

		out, _ := json.MarshalIndent(res, "", "  ")
		return mcp.NewToolResultText(string(out)), nil
	})
}
