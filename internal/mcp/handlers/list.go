package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/hub"
)

// ListNotifications returns a handler that lists stored notifications,
// most recent first.
func ListNotifications(h *hub.Hub) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		limit := 20
		if l, ok := args["limit"].(float64); ok && l > 0 {
			limit = int(l)
		}
		unreadOnly, _ := args["unread_only"].(bool)

		all := h.List()

		var sb strings.Builder
		count := 0
		for _, n := range all {
			if unreadOnly && n.Read {
				continue
			}
			if count >= limit {
				break
			}
			count++

			marker := "●"
			if n.Read {
				marker = "○"
			}
			sb.WriteString(fmt.Sprintf("%s **%s** [%s] — %s\n", marker, n.Title, n.Category, n.ID))
			if n.Summary != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", n.Summary))
			} else {
				sb.WriteString(fmt.Sprintf("  %s\n", truncate(n.Message, 120)))
			}
			sb.WriteString(fmt.Sprintf("  %s\n\n", n.CreatedAt.Format("2006-01-02 15:04:05")))
		}

		if count == 0 {
			return mcp.NewToolResultText("No notifications found."), nil
		}

		header := fmt.Sprintf("🔔 Notifications (%d shown)\n\n", count)
		return mcp.NewToolResultText(header + sb.String()), nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
