package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("capture_save",
	mcp.WithDescription("Save a capture into the vault: formats it as a markdown document, writes it collision-safely, and indexes it for autocomplete."),
	mcp.WithString("content", mcp.Description("Free-form capture text")),
	mcp.WithString("clipboard", mcp.Description("Clipboard snippet to archive alongside the content")),
	mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	mcp.WithString("sources", mcp.Description("Comma-separated sources")),
	mcp.WithString("context", mcp.Description("Context value, e.g. what you were doing")),
	mcp.WithString("timestamp", mcp.Description("RFC3339 timestamp; defaults to now")),
)

var suggestToolDef = mcp.NewTool("capture_suggest",
	mcp.WithDescription("Ranked autocomplete candidates for a capture field."),
	mcp.WithString("field", mcp.Required(), mcp.Description("One of: tag, source, context")),
	mcp.WithString("query", mcp.Description("Partial value to match; blank returns the most recently used values")),
	mcp.WithNumber("limit", mcp.Description("Maximum candidates to return (default 10)")),
)

var existsToolDef = mcp.NewTool("capture_exists",
	mcp.WithDescription("Whether a value was ever recorded for a capture field."),
	mcp.WithString("field", mcp.Required(), mcp.Description("One of: tag, source, context")),
	mcp.WithString("value", mcp.Required(), mcp.Description("Exact value to look up")),
)

var recentValuesToolDef = mcp.NewTool("capture_recent_values",
	mcp.WithDescription("The most recent capture's tags, sources, and context, for pre-filling a new capture."),
)

var rebuildToolDef = mcp.NewTool("capture_rebuild_index",
	mcp.WithDescription("Rebuild the suggestion index from the capture files in the vault."),
)
