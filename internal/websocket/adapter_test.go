package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageAdapterStepProgress(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	adapter := NewMessageAdapter(hub, discardLogger())
	adapter.BroadcastUpdate("step_progress", "", "", map[string]interface{}{
		"step":     "ingest",
		"progress": float64(55),
		"message":  "loading tables",
	})

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeOutput, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "ingest: loading tables", data["message"])
	assert.Equal(t, LevelInfo, data["level"])
}

func TestMessageAdapterDataUpdateBecomesRefresh(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	adapter := NewMessageAdapter(hub, discardLogger())
	adapter.BroadcastUpdate(TypeDataUpdate, "reports", "", nil)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeDataUpdate, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "adapter", data["source"])
	assert.Equal(t, []interface{}{"reports"}, data["components"])
}

func TestMessageAdapterError(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	adapter := NewMessageAdapter(hub, discardLogger())
	adapter.BroadcastUpdate(TypeError, "", "", map[string]interface{}{
		"code":        "report_write_failed",
		"message":     "disk full",
		"step":        "report",
		"recoverable": true,
	})

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeError, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "report_write_failed", data["code"])
	assert.Equal(t, "report", data["step"])
	assert.Equal(t, true, data["recoverable"])
}

func TestOperationHubAdapterPassesThrough(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	adapter := NewOperationHubAdapter(hub)
	adapter.BroadcastUpdate("operation:snapshot", "op-9", "update", map[string]interface{}{
		"operation_id": "op-9",
	})

	msg := receiveMessage(t, client)
	require.Equal(t, "operation:snapshot", msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "op-9", data["operation_id"])
}
