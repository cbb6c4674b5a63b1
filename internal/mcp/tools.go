package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/mcp/handlers"
)

func registerTools(s *server.MCPServer, deps *Deps) {
	// send_notification — Push a notification to the hub
	s.AddTool(
		mcp.NewTool("send_notification",
			mcp.WithDescription("Send a notification to the Beacon hub. It is pushed to connected UIs immediately and may be announced on the desktop. Long messages are summarized in the background."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Short notification title"),
			),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("Notification body"),
			),
			mcp.WithString("category",
				mcp.Description("Free-form category label (default: info)"),
			),
			mcp.WithString("project",
				mcp.Description("Project directory path; enables the open-in-editor click action"),
			),
		),
		handlers.SendNotification(deps.Hub),
	)

	// list_notifications — List stored notifications
	s.AddTool(
		mcp.NewTool("list_notifications",
			mcp.WithDescription("List notifications, most recent first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notifications to return (default: 20)"),
			),
			mcp.WithBoolean("unread_only",
				mcp.Description("Only include unread notifications"),
			),
		),
		handlers.ListNotifications(deps.Hub),
	)

	// mark_notification_read — Mark one notification read
	s.AddTool(
		mcp.NewTool("mark_notification_read",
			mcp.WithDescription("Mark a notification as read."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The notification id"),
			),
		),
		handlers.MarkNotificationRead(deps.Hub),
	)
}
