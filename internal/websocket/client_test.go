package websocket

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWritePumpSendsFrames(t *testing.T) {
	hub := startTestHub(t)
	conn := newFakeConn()
	client := NewClientWithConnection(hub, conn, discardLogger())

	go client.WritePump()

	client.send <- []byte(`{"type":"status"}`)
	require.Eventually(t, func() bool {
		return len(conn.frames()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	written := conn.frames()[0]
	assert.Equal(t, websocket.TextMessage, written.kind)
	assert.Equal(t, `{"type":"status"}`, string(written.data))

	// Closing the send channel makes the pump emit a close frame and stop
	close(client.send)
	require.Eventually(t, func() bool {
		frames := conn.frames()
		return len(frames) == 2 && frames[1].kind == websocket.CloseMessage
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientReadPumpUnregistersOnClose(t *testing.T) {
	hub := startTestHub(t)
	conn := newFakeConn()
	client := NewClientWithConnection(hub, conn, discardLogger())

	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.queueRead(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)

	go client.ReadPump()

	// The script runs out, the pump exits and unregisters
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, conn.isClosed, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), client.messagesReceived)
	assert.Equal(t, int64(maxMessageSize), conn.limit())
}

func TestNewClientWithConnectionMetadata(t *testing.T) {
	hub := NewHub(discardLogger())
	conn := newFakeConn()
	conn.remote = "10.1.2.3:5555"

	client := NewClientWithConnection(hub, conn, discardLogger())
	assert.NotEmpty(t, client.id)
	assert.Equal(t, "10.1.2.3:5555", client.remoteAddr)
	assert.False(t, client.connectedAt.IsZero())
	assert.Equal(t, 256, cap(client.send))
}
