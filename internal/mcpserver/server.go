// Package mcpserver exposes plancraft's validators and payload transformers
// as Model Context Protocol tools over stdio.
//
// An assistant can ask which comparisons are legal for an assertion source,
// repair an assertion after its source changed, and validate or preview a
// test plan or schedule draft without touching the execution service.
//
// Drafts are passed as a flat object keyed by field name, the same shape
// the draft files accepted by the CLI use.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"plancraft/internal/schedule"
	"plancraft/internal/testplan"
	"plancraft/internal/validation"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// Server wraps an mcp-go server with the plancraft tool set.
type Server struct {
	mcpServer *server.MCPServer
	vctx      func() *validation.Context
}

// Option configures a Server.
type Option func(*Server)

// WithValidationContext supplies reference data for membership checks. The
// function is called once per tool call so that refreshed lists are seen.
func WithValidationContext(fn func() *validation.Context) Option {
	return func(s *Server) { s.vctx = fn }
}

// New creates a server announcing itself as plancraft at version.
func New(version string, opts ...Option) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"plancraft",
			version,
			server.WithToolCapabilities(false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// Start serves the tools on stdin/stdout until the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	logging.Info("MCP", "Serving plancraft tools on stdio")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) validationContext() *validation.Context {
	if s.vctx == nil {
		return nil
	}
	return s.vctx()
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("assertion_comparisons",
		mcp.WithDescription("List the comparisons legal for an assertion source, or the full matrix when no source is given"),
		mcp.WithString("source",
			mcp.Description("Assertion source, e.g. status_code or body_json_path"),
		),
	), s.handleComparisons)

	s.mcpServer.AddTool(mcp.NewTool("assertion_repair",
		mcp.WithDescription("Move an assertion to a new source and fix its comparison and property"),
		mcp.WithObject("assertion",
			mcp.Required(),
			mcp.Description("Assertion with source, property, comparison, targetValue and enabled"),
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("New assertion source"),
		),
	), s.handleRepair)

	s.registerWizardTools("testplan", "test plan", testplan.Definition)
	s.registerWizardTools("schedule", "schedule", schedule.Definition)
}

func (s *Server) registerWizardTools(prefix, noun string, def func() wizard.Definition) {
	s.mcpServer.AddTool(mcp.NewTool(prefix+"_validate",
		mcp.WithDescription("Validate every step of a "+noun+" draft and report field errors"),
		mcp.WithObject("draft",
			mcp.Required(),
			mcp.Description("Field values keyed by field name; omitted fields keep their defaults"),
		),
	), s.validateHandler(def))

	s.mcpServer.AddTool(mcp.NewTool(prefix+"_payload",
		mcp.WithDescription("Build the request body a "+noun+" draft would be submitted as"),
		mcp.WithObject("draft",
			mcp.Required(),
			mcp.Description("Field values keyed by field name; omitted fields keep their defaults"),
		),
	), s.payloadHandler(def))
}
