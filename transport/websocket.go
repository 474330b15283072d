package transport

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"
)

// wsConn implements Connection over WebSocket, adapted from the teacher's
// steamclient/transport.go. It carries no channel cipher of its own — CM's
// WebSocket endpoints are TLS-terminated, so the handshake in tcp.go has no
// counterpart here.
type wsConn struct {
	conn   *websocket.Conn
	addr   string
	status atomic.Int32
}

func dialWebSocket(ctx context.Context, host string) (*wsConn, error) {
	w := &wsConn{addr: host}
	w.status.Store(int32(StatusConnecting))

	url := fmt.Sprintf("wss://%s/cmsocket/", host)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		w.status.Store(int32(StatusError))
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	conn.SetReadLimit(1 << 24) // Multi messages can be large.

	w.conn = conn
	w.status.Store(int32(StatusConnected))
	return w, nil
}

func (w *wsConn) Status() Status { return Status(w.status.Load()) }

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	if err := w.conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		w.status.Store(int32(StatusError))
		return err
	}
	return nil
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		w.status.Store(int32(StatusGotEOF))
		return nil, err
	}
	return data, nil
}

func (w *wsConn) Close() error {
	w.status.Store(int32(StatusDisconnected))
	return w.conn.CloseNow()
}

func (w *wsConn) RemoteAddr() string { return w.addr }
