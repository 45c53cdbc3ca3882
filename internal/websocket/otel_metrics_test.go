package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTelMetrics(t *testing.T) {
	m, err := NewOTelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	// Instruments from the global no-op provider must accept records
	ctx := context.Background()
	m.RecordConnection(ctx, "client-1", "127.0.0.1:1234")
	m.RecordDisconnection(ctx, "client-1", 5*time.Second, "normal")
	m.RecordConnectionError(ctx, "client-1", "upgrade", errors.New("bad handshake"))
	m.RecordMessageSent(ctx, "server_message", "client-1", 128)
	m.RecordMessageReceived(ctx, "client_message", "client-1", 64)
	m.RecordMessageError(ctx, "server_message", "client-1", "write", errors.New("broken pipe"))
	m.RecordQueueDepth(ctx, 3, "broadcast")
	m.RecordDroppedMessage(ctx, "server_message", "buffer_full")
	m.RecordBroadcast(ctx, "operation:snapshot", 4, 4, 0)
	m.RecordClientCount(ctx, 4)
	m.RecordOperationEvent(ctx, "op-1", "operation:snapshot", "ingest")
}

func TestGlobalOTelMetrics(t *testing.T) {
	require.NoError(t, InitOTelMetrics())
	assert.NotNil(t, GetOTelMetrics())
}
