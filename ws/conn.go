// Package ws is the live transport: one WebSocket per session, JSON
// envelopes both ways, delivery decoupled from the network by a bounded
// send queue.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomchat/domain/event"
	"roomchat/errors"
)

// WireConn is an indirection over *websocket.Conn to ease testing.
type WireConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// envelope is the wire frame, inbound and outbound alike.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Conn adapts one WebSocket into an event sink. Consume never blocks:
// when the send queue is full the event is refused and the caller counts
// it as dropped.
type Conn struct {
	conn         WireConn
	send         chan envelope
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewConn(conn WireConn, bufferSize int, writeTimeout time.Duration) *Conn {
	return &Conn{
		conn:         conn,
		send:         make(chan envelope, bufferSize),
		writeTimeout: writeTimeout,
	}
}

func (c *Conn) Consume(_ context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// The mutex keeps the enqueue and Close from racing on the channel.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrSessionClosed
	}
	select {
	case c.send <- envelope{Type: evt.Kind(), Data: data}:
		return nil
	default:
		return errors.ErrBackpressure
	}
}

// Close shuts the send queue and the underlying socket. Safe to call
// more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// writePump drains the send queue onto the network and keeps the peer
// alive with pings. It owns the socket: when the pump exits, the
// connection is closed.
func (c *Conn) writePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case env, ok := <-c.send:
			if !ok {
				return
			}
			data, err := json.Marshal(env)
			if err != nil {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
