package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/arjav0703/typing-game/pkg/link"
	"github.com/arjav0703/typing-game/pkg/session"
)

// Handler runs one connection at a time per Serve call against a shared store
// and hub.
type Handler struct {
	store        *session.Store
	hub          *session.Hub
	participants atomic.Int64
}

func NewHandler(store *session.Store, hub *session.Hub) *Handler {
	return &Handler{store: store, hub: hub}
}

// Participants is the number of connections currently being served.
func (h *Handler) Participants() int64 {
	return h.participants.Load()
}

// Serve drives a single participant until its link fails or closes, or the
// hub is closed. It always closes l before returning. A nil error means the
// connection ended normally.
//
// The subscription is taken before the initial snapshot is read, so a
// contribution committed in between is delivered through the hub; hub
// snapshots not newer than the initial one are skipped.
func (h *Handler) Serve(l link.Link, logger *slog.Logger) error {
	h.participants.Add(1)
	defer h.participants.Add(-1)
	defer l.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()

	initial := h.store.Current()
	if err := l.Send(initial.Text); err != nil {
		return fmt.Errorf("failed to send initial snapshot: %w", err)
	}
	last := initial.Version
	logger.Info("participant joined", "version", last, "participants", h.Participants())

	done := make(chan struct{})
	defer close(done)
	inbound := make(chan message)
	go readLoop(l, inbound, done)

	prefer := sourceInbound
	for {
		ev := wait(prefer, inbound, sub.C())
		prefer = ev.source.other()

		switch ev.source {
		case sourceInbound:
			if ev.message.err != nil {
				if errors.Is(ev.message.err, link.ErrClosed) {
					logger.Info("participant left", "dropped", sub.Dropped())
					return nil
				}
				return ev.message.err
			}
			sn, err := h.store.Append(ev.message.text)
			switch {
			case errors.Is(err, session.ErrRejected):
				logger.Debug("discarded contribution", "raw", ev.message.text)
				continue
			case err != nil:
				logger.Error("failed to apply contribution", "err", err)
				continue
			}
			logger.Debug("updated text", "version", sn.Version, "length", len(sn.Text))
			h.hub.Publish(sn)

		case sourceBroadcast:
			if ev.closed {
				logger.Info("hub closed")
				return nil
			}
			if ev.snapshot.Version <= last {
				continue
			}
			last = ev.snapshot.Version
			if err := l.Send(ev.snapshot.Text); err != nil {
				return err
			}
		}
	}
}

// message is one result of Link.Receive.
type message struct {
	text string
	err  error
}

// readLoop forwards everything received on l until the first error, which is
// forwarded as well.
func readLoop(l link.Link, out chan<- message, done <-chan struct{}) {
	for {
		text, err := l.Receive()
		select {
		case out <- message{text: text, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}
