// Package link carries whole text messages between a participant and the
// coordinator over a websocket. One message is one logical unit: a snapshot
// from the coordinator, or a contribution from a participant.
package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Receive once the peer has closed the link normally
// or the link was closed locally.
var ErrClosed = errors.New("link closed")

type Link interface {
	Send(text string) error
	Receive() (string, error)
	Close() error
}

const closeGracePeriod = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is a Link backed by a websocket connection. Send and Receive may be
// used from two different goroutines; Close may be called from anywhere.
type Conn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Accept upgrades an incoming HTTP request. On failure the upgrader has
// already replied to the client.
func Accept(writer http.ResponseWriter, request *http.Request) (*Conn, error) {
	conn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade: %w", err)
	}
	return &Conn{conn: conn}, nil
}

func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	return &Conn{conn: conn}, nil
}

func (c *Conn) Send(text string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Receive blocks until the next text message arrives. Binary frames are
// skipped.
func (c *Conn) Receive() (string, error) {
	for {
		mt, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				return "", ErrClosed
			}
			return "", fmt.Errorf("failed to read message: %w", err)
		}
		switch mt {
		case websocket.TextMessage:
			return string(p), nil
		default:
		}
	}
}

// Close sends a best-effort close frame and tears the connection down. It
// does not wait for the peer to acknowledge.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
