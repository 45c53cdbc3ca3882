package websocket

import (
	"errors"
	"sync"
	"time"
)

// wsFrame is one scripted or recorded frame on a fakeConn
type wsFrame struct {
	kind int
	data []byte
	err  error
}

// fakeConn is an in-memory Connection for pump tests. Writes are
// recorded; reads drain the scripted frames and then fail, which drives
// the read pump to its shutdown path.
type fakeConn struct {
	mu        sync.Mutex
	written   []wsFrame
	script    []wsFrame
	next      int
	closed    bool
	readLimit int64
	remote    string
}

func newFakeConn() *fakeConn {
	return &fakeConn{remote: "127.0.0.1:8080"}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.written = append(f.written, wsFrame{kind: messageType, data: data})
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, nil, errors.New("connection closed")
	}
	if f.next < len(f.script) {
		frame := f.script[f.next]
		f.next++
		return frame.kind, frame.data, frame.err
	}
	return 0, nil, errors.New("script exhausted")
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) SetReadLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readLimit = limit
}

func (f *fakeConn) SetPongHandler(func(string) error)       {}
func (f *fakeConn) SetPingHandler(func(string) error)       {}
func (f *fakeConn) SetCloseHandler(func(int, string) error) {}

func (f *fakeConn) RemoteAddr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote
}

// queueRead appends a frame for ReadMessage to return
func (f *fakeConn) queueRead(kind int, data []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, wsFrame{kind: kind, data: data, err: err})
}

// frames returns a copy of everything written so far
func (f *fakeConn) frames() []wsFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]wsFrame, len(f.written))
	copy(out, f.written)
	return out
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) limit() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLimit
}
