package handlers

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/hub"
	"github.com/btouchard/beacon/internal/store"
)

// SendNotification returns a handler that pushes a notification to the hub.
func SendNotification(h *hub.Hub) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		title, _ := args["title"].(string)
		if title == "" {
			return mcp.NewToolResultText("Error: title is required"), nil
		}
		message, _ := args["message"].(string)
		if message == "" {
			return mcp.NewToolResultText("Error: message is required"), nil
		}

		payload := store.CreatePayload{
			Title:   title,
			Message: message,
		}
		if category, ok := args["category"].(string); ok {
			payload.Category = category
		}
		if project, ok := args["project"].(string); ok && project != "" {
			payload.Metadata = map[string]any{"project": project}
		}

		n := h.Create(payload)

		return mcp.NewToolResultText(fmt.Sprintf("Notification sent — id %s, category %s", n.ID, n.Category)), nil
	}
}
