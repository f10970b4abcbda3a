package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/grump/agentguard/internal/config"
	"github.com/grump/agentguard/internal/setup"
)

// Server exposes the safety pipeline as MCP tools over stdio, so an
// agent host can run checks without an HTTP hop.
type Server struct {
	mcpServer *mcpsdk.Server
	deps      *setup.Deps
	log       zerolog.Logger
}

// New wires an MCP server from the config at configPath.
func New(configPath string, log zerolog.Logger) (*Server, error) {
	cfg, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return nil, err
	}

	deps, err := setup.Build(cfg, hash, log)
	if err != nil {
		return nil, err
	}

	s := &Server{deps: deps, log: log}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "agentguard",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the audit log handle if one is open.
func (s *Server) Close() error {
	return s.deps.Close()
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_evaluate",
		Description: "Run safety checks (subject standing, quota, content, injection) against content. Returns the verdict; a rejection is a result, not an error.",
	}, s.handleEvaluate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_sanitize",
		Description: "Strip role-token markers and redact PII (SSNs, card numbers, email addresses) from content.",
	}, s.handleSanitize)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_profile",
		Description: "Fetch the risk profile of a subject: level, score, flags, and counters.",
	}, s.handleProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_usage",
		Description: "Fetch a subject's quota consumption across the minute, hour, and day windows.",
	}, s.handleUsage)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_block",
		Description: "Block a subject. Blocked subjects fail every evaluation until unblocked.",
	}, s.handleBlock)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "agentguard_unblock",
		Description: "Unblock a subject into probation (medium risk).",
	}, s.handleUnblock)
}
