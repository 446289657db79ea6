package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hollismb/kapture/internal/config"
	"github.com/hollismb/kapture/internal/db"
	"github.com/hollismb/kapture/internal/errors"
	"github.com/hollismb/kapture/internal/ops"
	"github.com/hollismb/kapture/internal/vault"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db    *sql.DB
	store *vault.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, cfg config.Config) *Handlers {
	return &Handlers{db: database, store: vault.StoreFor(cfg)}
}

// Request types for each tool

// SuggestRequest represents the arguments for capture_suggest.
type SuggestRequest struct {
	Field string `json:"field"`
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ExistsRequest represents the arguments for capture_exists.
type ExistsRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// HandleSave handles the capture_save tool call. The arguments are the raw
// capture payload; coercion happens downstream, so any field shape the
// ingestion path accepts works here too.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload := req.GetArguments()

	content, _ := payload["content"].(string)
	clipboard, _ := payload["clipboard"].(string)
	if strings.TrimSpace(content) == "" && strings.TrimSpace(clipboard) == "" {
		return errorResult(errors.NewInvalidRequest("capture is empty: provide content or clipboard")), nil
	}

	return successResult(ops.Ingest(h.db, h.store, payload))
}

// HandleSuggest handles the capture_suggest tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !db.ValidField(input.Field) {
		return errorResult(errors.NewInvalidField(input.Field)), nil
	}

	suggestions := ops.Suggest(h.db, input.Field, input.Query, input.Limit)
	return successResult(map[string]any{"suggestions": suggestions})
}

// HandleExists handles the capture_exists tool call.
func (h *Handlers) HandleExists(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExistsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !db.ValidField(input.Field) {
		return errorResult(errors.NewInvalidField(input.Field)), nil
	}

	return successResult(map[string]any{"exists": ops.Exists(h.db, input.Field, input.Value)})
}

// HandleRecentValues handles the capture_recent_values tool call.
func (h *Handlers) HandleRecentValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.RecentValues(h.db))
}

// HandleRebuild handles the capture_rebuild_index tool call.
func (h *Handlers) HandleRebuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := ops.Rebuild(h.db, h.store)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from a structured error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if kErr, ok := err.(*errors.KaptureError); ok {
		errorObj := map[string]any{
			"code":    kErr.Code,
			"message": kErr.Message,
			"status":  kErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if kErr.Code != errors.ErrInternal && kErr.Details != nil {
			errorObj["details"] = kErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
