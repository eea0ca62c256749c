package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTick is how often the UI refreshes when nothing else happens.
const DefaultTick = 250 * time.Millisecond

type InputKind int

const (
	// InputText types Text into the input buffer.
	InputText InputKind = iota
	InputBackspace
	InputSubmit
	// InputConnect connects from Welcome and retries from Disconnected.
	InputConnect
	// InputBack leaves a connection, or acknowledges a disconnect.
	InputBack
	InputQuit
)

// Input is one user intent, already decoded by the front end.
type Input struct {
	Kind InputKind
	Text string
}

// Renderer displays the session. Render is only called from the UI
// goroutine.
type Renderer interface {
	Render(View)
}

// App is the UI side of a participant. It owns the Session and exchanges
// commands and events with a Connector running on its own goroutine.
type App struct {
	session   *Session
	connector *Connector
	renderer  Renderer
	tick      time.Duration
	logger    *slog.Logger
}

func NewApp(s *Session, c *Connector, r Renderer, tick time.Duration, logger *slog.Logger) *App {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &App{session: s, connector: c, renderer: r, tick: tick, logger: logger}
}

// Run drives the session until the user quits, inputs is closed, or ctx is
// done. The network goroutine is stopped before Run returns.
func (a *App) Run(ctx context.Context, inputs <-chan Input) error {
	ctx, cancel := context.WithCancel(ctx)
	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.connector.Run(ctx); err != nil {
			a.logger.Error("network task failed", "err", err)
		}
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	t := time.NewTicker(a.tick)
	defer t.Stop()
	events := a.connector.Events()
	for {
		a.renderer.Render(a.session.View())
		select {
		case <-ctx.Done():
			return nil
		case in, ok := <-inputs:
			if !ok || !a.handle(in) {
				return nil
			}
		case <-events.Ready():
			for _, ev := range events.Drain() {
				ev.Apply(a.session)
			}
		case <-t.C:
			a.session.Tick()
		}
	}
}

// handle applies in and reports whether the app should keep running.
func (a *App) handle(in Input) bool {
	s := a.session
	switch in.Kind {
	case InputText:
		for _, r := range in.Text {
			s.Type(r)
		}
	case InputBackspace:
		s.Backspace()
	case InputSubmit:
		return a.perform(s.Submit())
	case InputConnect:
		if s.Phase() == PhaseDisconnected {
			return a.perform(s.Retry())
		}
		return a.perform(s.Connect())
	case InputBack:
		if s.Phase() == PhaseDisconnected {
			return a.perform(s.Acknowledge())
		}
		return a.perform(s.Exit())
	case InputQuit:
		return a.perform(s.Quit())
	}
	return true
}

func (a *App) perform(eff Effect) bool {
	commands := a.connector.Commands()
	switch eff.Kind {
	case EffectOpenLink:
		commands.Push(Command{Kind: CommandOpen, Attempt: eff.Attempt})
	case EffectCloseLink:
		commands.Push(Command{Kind: CommandClose, Attempt: eff.Attempt})
	case EffectSend:
		commands.Push(Command{Kind: CommandSend, Attempt: eff.Attempt, Text: eff.Contribution})
	case EffectExit:
		return false
	}
	return true
}
