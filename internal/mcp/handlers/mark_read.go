package handlers

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/hub"
)

// MarkNotificationRead returns a handler that marks one notification read.
func MarkNotificationRead(h *hub.Hub) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		id, _ := args["id"].(string)
		if id == "" {
			return mcp.NewToolResultText("Error: id is required"), nil
		}

		n, ok := h.MarkRead(id)
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("Notification %s not found", id)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Marked %q as read", n.Title)), nil
	}
}
