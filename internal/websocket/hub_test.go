package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(discardLogger())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func registerTestClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, newFakeConn(), discardLogger())
	hub.Register(client)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	return client
}

// receiveMessage reads the next broadcast frame from the client's send queue
func receiveMessage(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-client.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubRegisterSendsConnectionMessage(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])
}

func TestHubUnregisterRemovesClient(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The hub closed the send channel
	_, open := <-client.send
	assert.False(t, open)
}

func TestHubBroadcastUpdateEnvelope(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	hub.BroadcastUpdate(TypeDataUpdate, "tables", ActionRefresh, map[string]interface{}{"count": 3})

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeDataUpdate, msg["type"])
	assert.Equal(t, "tables", msg["subtype"])
	assert.Equal(t, ActionRefresh, msg["action"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestHubOperationSnapshotOmitsEnvelope(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	hub.BroadcastUpdate("operation:snapshot", "op-1", "update", map[string]interface{}{
		"operation_id": "op-1",
		"status":       "running",
	})

	msg := receiveMessage(t, client)
	assert.Equal(t, "operation:snapshot", msg["type"])
	assert.NotContains(t, msg, "subtype")
	assert.NotContains(t, msg, "action")

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "running", data["status"])
}

func TestHubBroadcastProgress(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	hub.BroadcastProgress("ingest", 40, "loading tables")

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeProgress, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "ingest", data["step"])
	assert.Equal(t, float64(40), data["progress"])
}

func TestHubBroadcastErrorIncludesHint(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)
	receiveMessage(t, client)

	hub.BroadcastError("dataset_missing", "no tables found", "dir empty", "ingest", true)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeError, msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "dataset_missing", data["code"])
	assert.Equal(t, ErrorRecoveryHints["dataset_missing"], data["hint"])
	assert.Equal(t, true, data["recoverable"])

	hub.BroadcastError("unmapped_code", "boom", "", "report", false)
	msg = receiveMessage(t, client)
	data = msg["data"].(map[string]interface{})
	assert.Equal(t, ErrorRecoveryHints["default"], data["hint"])
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub)

	// Fill the send buffer; no WritePump is draining it
	filled := false
	for !filled {
		select {
		case client.send <- []byte("{}"):
		default:
			filled = true
		}
	}

	hub.BroadcastStatus("running", "still working")

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(discardLogger())
	hub.Start()
	registerTestClient(t, hub)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
	hub.Stop()
}

func TestHubMetricsSnapshot(t *testing.T) {
	hub := startTestHub(t)
	registerTestClient(t, hub)

	metrics := hub.GetHubMetrics()
	assert.Equal(t, 1, metrics["active_clients"])
	assert.Equal(t, int64(1), metrics["total_connections"])
}
