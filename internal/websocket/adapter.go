package websocket

import (
	"log/slog"
)

// MessageAdapter translates legacy update payloads into hub broadcast methods
type MessageAdapter struct {
	hub    *Hub
	logger *slog.Logger
}

// NewMessageAdapter creates a new message adapter with dependency injection
func NewMessageAdapter(hub *Hub, logger *slog.Logger) *MessageAdapter {
	if logger == nil {
		logger = hub.logger
	}
	return &MessageAdapter{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket_adapter")),
	}
}

// BroadcastUpdate adapts various update types to hub broadcast methods
func (a *MessageAdapter) BroadcastUpdate(updateType, subtype, action string, data interface{}) {
	switch updateType {
	case "step_progress":
		// Convert to output message
		if msg, ok := data.(map[string]interface{}); ok {
			if progress, ok := msg["progress"].(float64); ok {
				step := ""
				if s, ok := msg["step"].(string); ok {
					step = s
				}
				message := ""
				if m, ok := msg["message"].(string); ok {
					message = m
				}
				a.hub.BroadcastOutput(formatProgressMessage(step, int(progress), message), LevelInfo)
			}
		}

	case TypeDataUpdate:
		// Use refresh for data updates
		components := []string{"all"}
		if subtype != "" {
			components = []string{subtype}
		}
		a.hub.BroadcastRefresh("adapter", components)

	case TypeOutput:
		if msg, ok := data.(map[string]interface{}); ok {
			message, ok := msg["message"].(string)
			if !ok {
				return
			}
			level := LevelInfo
			if lvl, ok := msg["level"].(string); ok {
				level = lvl
			}
			a.hub.BroadcastOutput(message, level)
		}

	case TypeError:
		if msg, ok := data.(map[string]interface{}); ok {
			message, ok := msg["message"].(string)
			if !ok {
				return
			}
			code := "ERR_UNKNOWN"
			if c, ok := msg["code"].(string); ok {
				code = c
			}
			step := "system"
			if s, ok := msg["step"].(string); ok {
				step = s
			}
			details := ""
			if d, ok := msg["details"].(string); ok {
				details = d
			}
			recoverable := false
			if r, ok := msg["recoverable"].(bool); ok {
				recoverable = r
			}
			a.hub.BroadcastError(code, message, details, step, recoverable)
		}

	default:
		a.hub.BroadcastOutput(formatGenericMessage(updateType, data), LevelInfo)
	}
}

func formatProgressMessage(step string, progress int, message string) string {
	if step != "" {
		return step + ": " + message
	}
	return message
}

func formatGenericMessage(msgType string, data interface{}) string {
	return "Update received"
}

// Register adds a client to the hub
func (a *MessageAdapter) Register(client *Client) {
	a.hub.Register(client)
}

// OperationHubAdapter adapts the Hub to the operations.WebSocketHub interface
type OperationHubAdapter struct {
	hub *Hub
}

// NewOperationHubAdapter creates a new adapter for pipeline integration
func NewOperationHubAdapter(hub *Hub) *OperationHubAdapter {
	return &OperationHubAdapter{hub: hub}
}

// BroadcastUpdate maps (eventType, step, status, metadata) onto the hub's
// (updateType, subtype, action, data) envelope.
func (p *OperationHubAdapter) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	p.hub.BroadcastUpdate(eventType, step, status, metadata)
}
