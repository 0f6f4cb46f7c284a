// Package mcp exposes the auditor over the Model Context Protocol so LLM
// agents can start audits and read the resulting reports.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"seo-audit/pkg/config"
)

const (
	serverName    = "seo-audit"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Defaults  *config.Options // Baseline options each audit job starts from
	Transport string          // "stdio" or "sse"
	Port      int
	Logger    *logrus.Logger
}

// Server wraps the MCP server with audit-specific functionality
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.Defaults == nil {
		return nil, fmt.Errorf("defaults are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// audit_site - start a background audit
	auditSiteTool := mcp.NewTool("audit_site",
		mcp.WithDescription("Start a background SEO audit of a site. Returns immediately with a job ID."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Base URL of the site to audit (e.g., 'https://example.com')"),
		),
		mcp.WithNumber("page_limit",
			mcp.Description("Maximum number of pages to process (defaults to configured limit)"),
		),
		mcp.WithBoolean("force_refresh",
			mcp.Description("Ignore cached results and refetch every page"),
		),
		mcp.WithBoolean("single_page",
			mcp.Description("Audit only the given URL, skipping sitemap and link discovery"),
		),
	)
	s.mcpServer.AddTool(auditSiteTool, s.handleAuditSite)

	// job_status - check status of an audit job
	jobStatusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Get the status and progress of an audit job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by audit_site"),
		),
	)
	s.mcpServer.AddTool(jobStatusTool, s.handleJobStatus)

	// get_report - read a completed audit report
	getReportTool := mcp.NewTool("get_report",
		mcp.WithDescription("Read the audit report for a previously audited site"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Base URL the audit was run against"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of page entries to return (default: 25, max: 200)"),
		),
	)
	s.mcpServer.AddTool(getReportTool, s.handleGetReport)

	s.log.Infof("Registered %d MCP tools", 3)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
