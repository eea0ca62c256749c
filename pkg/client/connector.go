package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/arjav0703/typing-game/pkg/link"
	"github.com/arjav0703/typing-game/pkg/queue"
)

type CommandKind int

const (
	CommandOpen CommandKind = iota
	CommandSend
	CommandClose
)

// Command is a request from the UI goroutine to the network goroutine.
type Command struct {
	Kind    CommandKind
	Attempt uint64
	Text    string
}

type EventKind int

const (
	EventEstablished EventKind = iota
	EventFailed
	EventDropped
	EventSnapshot
)

// Event is a report from the network goroutine. Attempt names the connection
// it belongs to.
type Event struct {
	Kind    EventKind
	Attempt uint64
	Text    string
	Err     error
}

// Dialer opens a link to url.
type Dialer func(ctx context.Context, url string) (link.Link, error)

func DialWebsocket(ctx context.Context, url string) (link.Link, error) {
	return link.Dial(ctx, url)
}

// Connector is the network side of a participant. Run owns the link
// exclusively; the UI talks to it only through Commands and Events, both
// unbounded and ordered.
type Connector struct {
	url      string
	dial     Dialer
	commands *queue.Unbounded[Command]
	events   *queue.Unbounded[Event]
	logger   *slog.Logger
}

func NewConnector(url string, dial Dialer, logger *slog.Logger) *Connector {
	if dial == nil {
		dial = DialWebsocket
	}
	return &Connector{
		url:      url,
		dial:     dial,
		commands: queue.New[Command](),
		events:   queue.New[Event](),
		logger:   logger,
	}
}

func (c *Connector) URL() string {
	return c.url
}

func (c *Connector) Commands() *queue.Unbounded[Command] {
	return c.commands
}

func (c *Connector) Events() *queue.Unbounded[Event] {
	return c.events
}

// active is the currently open link and the attempt it was opened for.
type active struct {
	link    link.Link
	attempt uint64
	closing atomic.Bool
}

func (a *active) close() {
	a.closing.Store(true)
	_ = a.link.Close()
}

// Run processes commands until ctx is done. The open link, if any, is closed
// without draining pending commands.
func (c *Connector) Run(ctx context.Context) error {
	var current *active
	defer func() {
		if current != nil {
			current.close()
		}
	}()

	for {
		cmd, err := c.commands.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return err
		}

		switch cmd.Kind {
		case CommandOpen:
			if current != nil {
				current.close()
				current = nil
			}
			l, err := c.dial(ctx, c.url)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Warn("failed to connect", "url", c.url, "err", err)
				c.events.Push(Event{Kind: EventFailed, Attempt: cmd.Attempt, Err: fmt.Errorf("connection failed: %w", err)})
				continue
			}
			current = &active{link: l, attempt: cmd.Attempt}
			c.events.Push(Event{Kind: EventEstablished, Attempt: cmd.Attempt})
			go c.readLoop(current)

		case CommandSend:
			if current == nil || current.attempt != cmd.Attempt {
				c.logger.Debug("dropping contribution for inactive link", "attempt", cmd.Attempt)
				continue
			}
			if err := current.link.Send(cmd.Text); err != nil {
				c.logger.Warn("failed to send", "err", err)
				current.close()
				c.events.Push(Event{Kind: EventDropped, Attempt: current.attempt, Err: errors.New("failed to send message")})
				current = nil
			}

		case CommandClose:
			if current != nil && current.attempt == cmd.Attempt {
				current.close()
				current = nil
			}
		}
	}
}

// readLoop turns every received message into a snapshot event. A read error
// is reported as a dropped link unless the link was closed on purpose.
func (c *Connector) readLoop(a *active) {
	for {
		text, err := a.link.Receive()
		if err != nil {
			if !a.closing.Load() {
				c.logger.Warn("connection lost", "err", err)
				c.events.Push(Event{Kind: EventDropped, Attempt: a.attempt, Err: errors.New("connection lost")})
			}
			return
		}
		c.events.Push(Event{Kind: EventSnapshot, Attempt: a.attempt, Text: text})
	}
}

// Apply feeds ev into s.
func (ev Event) Apply(s *Session) {
	switch ev.Kind {
	case EventEstablished:
		s.LinkEstablished(ev.Attempt)
	case EventFailed:
		s.LinkFailed(ev.Attempt, ev.Err.Error())
	case EventDropped:
		s.LinkDropped(ev.Attempt, ev.Err.Error())
	case EventSnapshot:
		s.SnapshotReceived(ev.Attempt, ev.Text)
	}
}
