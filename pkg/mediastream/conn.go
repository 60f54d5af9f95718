package mediastream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout bounds a single websocket write to the telephony side.
const DefaultWriteTimeout = 5 * time.Second

// ErrConnClosed is returned by Send after the connection has been closed.
var ErrConnClosed = errors.New("mediastream: connection closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is a telephony media stream over a websocket.
//
// Messages may be consumed by one goroutine; Send is safe for concurrent use.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex // serializes writes
	closeOnce sync.Once
	closeCh   chan struct{}
}

// Upgrade upgrades an HTTP request into a media stream connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("mediastream: upgrade: %w", err)
	}
	return NewConn(ws), nil
}

// NewConn wraps an established websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:           ws,
		writeTimeout: DefaultWriteTimeout,
		closeCh:      make(chan struct{}),
	}
}

// Messages returns an iterator over raw inbound messages.
//
// The iterator ends without an error when the peer closes the stream
// normally or when Close is called. Any other read failure is yielded once
// and ends the iteration. The sequence is not restartable.
func (c *Conn) Messages() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			_, message, err := c.ws.ReadMessage()
			if err != nil {
				if c.isClosed() || websocket.IsCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				yield(nil, fmt.Errorf("mediastream: read: %w", err))
				return
			}

			if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
				s := string(message)
				if len(s) > 200 {
					s = s[:200] + "..."
				}
				slog.Debug("mediastream: received message", "len", len(message), "content", s)
			}

			if !yield(message, nil) {
				return
			}
		}
	}
}

// Send encodes and writes one outbound message.
func (c *Conn) Send(msg Outbound) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return c.WriteMessage(data)
}

// WriteMessage writes a raw text message.
func (c *Conn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return ErrConnClosed
	}
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("mediastream: write: %w", err)
	}
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		// WriteControl may run concurrently with WriteMessage.
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

// Done returns a channel closed when Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.closeCh
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}
