// Package mcp exposes the capture operations as MCP tools over stdio, so
// editor agents can file captures and query autocomplete directly.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hollismb/kapture/internal/config"
)

// NewServer creates a new MCP server with the capture tools registered.
func NewServer(db *sql.DB, cfg config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"kapture",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	s.AddTool(saveToolDef, h.HandleSave)
	s.AddTool(suggestToolDef, h.HandleSuggest)
	s.AddTool(existsToolDef, h.HandleExists)
	s.AddTool(recentValuesToolDef, h.HandleRecentValues)
	s.AddTool(rebuildToolDef, h.HandleRebuild)

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}
