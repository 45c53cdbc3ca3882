package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsConnections(t *testing.T) {
	m := NewMetrics()

	m.RecordConnection()
	m.RecordConnection()
	m.RecordDisconnection(2 * time.Second)

	assert.Equal(t, int64(2), m.TotalConnections)
	assert.Equal(t, int64(1), m.ActiveConnections)
	assert.Equal(t, int64(2), m.MaxConcurrent)
	assert.Equal(t, 2*time.Second, m.AvgConnectionTime)
}

func TestMetricsMessages(t *testing.T) {
	m := NewMetrics()

	m.RecordMessage("sent", 100, true)
	m.RecordMessage("received", 50, true)
	m.RecordMessage("sent", 150, false)

	assert.Equal(t, int64(2), m.MessagesSent)
	assert.Equal(t, int64(1), m.MessagesReceived)
	assert.Equal(t, int64(250), m.BytesSent)
	assert.Equal(t, int64(50), m.BytesReceived)
	assert.Equal(t, int64(1), m.MessageErrors)
	assert.Equal(t, int64(100), m.AvgMessageSize)
}

func TestMetricsQueueAndErrors(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(4)
	m.RecordError("marshal")
	m.RecordError("marshal")
	m.RecordDroppedMessage()

	assert.Equal(t, int64(10), m.MaxQueueDepth)
	assert.Equal(t, int64(2), m.ErrorsByType["marshal"])
	assert.Equal(t, int64(1), m.DroppedMessages)
}

func TestMetricsSnapshotAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordMessage("sent", 10, true)
	m.RecordError("write")

	snapshot := m.GetSnapshot()
	conns, ok := snapshot["connections"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), conns["total"])

	msgs, ok := snapshot["messages"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), msgs["sent"])

	errs, ok := snapshot["errors"].(map[string]int64)
	require.True(t, ok)
	assert.Equal(t, int64(1), errs["write"])

	m.Reset()
	assert.Equal(t, int64(0), m.TotalConnections)
	assert.Empty(t, m.ErrorsByType)
}

func TestGlobalMetricsInstance(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}
