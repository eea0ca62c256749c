package client

import (
	"time"
	"unicode/utf8"

	"github.com/arjav0703/typing-game/pkg/session"
)

type Phase int

const (
	PhaseWelcome Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseWelcome:
		return "welcome"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	// EffectOpenLink asks for a new connection tagged with Attempt.
	EffectOpenLink
	// EffectCloseLink asks for the current connection to be closed.
	EffectCloseLink
	// EffectSend asks for Contribution to be sent on connection Attempt.
	EffectSend
	// EffectExit asks for the whole client to stop.
	EffectExit
)

// Effect is the side effect a caller must carry out after feeding an input
// to a Session.
type Effect struct {
	Kind         EffectKind
	Attempt      uint64
	Contribution string
}

// View is a read-only copy of everything a front end may display.
type View struct {
	Phase      Phase
	Mode       session.Mode
	Input      string
	Text       string
	CharsTyped int
	WPM        float64
	Error      string
}

// Session is the participant-side state machine. It is not safe for
// concurrent use; the UI goroutine owns it and feeds it both user input and
// connection events.
//
// Every connection attempt gets a new number. Connection events carry the
// attempt they belong to and are ignored once a newer attempt has started.
type Session struct {
	mode session.Mode
	now  func() time.Time

	phase      Phase
	attempt    uint64
	input      []rune
	text       string
	charsTyped int
	startedAt  time.Time
	wpm        float64
	errMsg     string
}

// NewSession returns a session in the Welcome phase. A nil now uses
// time.Now.
func NewSession(mode session.Mode, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{mode: mode, now: now}
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Attempt() uint64 {
	return s.attempt
}

func (s *Session) View() View {
	return View{
		Phase:      s.phase,
		Mode:       s.mode,
		Input:      string(s.input),
		Text:       s.text,
		CharsTyped: s.charsTyped,
		WPM:        s.wpm,
		Error:      s.errMsg,
	}
}

// Connect leaves the Welcome phase.
func (s *Session) Connect() Effect {
	if s.phase != PhaseWelcome {
		return Effect{}
	}
	return s.open()
}

// Retry leaves the Disconnected phase with a fresh attempt.
func (s *Session) Retry() Effect {
	if s.phase != PhaseDisconnected {
		return Effect{}
	}
	return s.open()
}

// open starts a fresh attempt. Everything learned on an earlier connection
// is forgotten, typing metrics included.
func (s *Session) open() Effect {
	s.attempt++
	s.phase = PhaseConnecting
	s.errMsg = ""
	s.input = s.input[:0]
	s.text = ""
	s.charsTyped = 0
	s.wpm = 0
	s.startedAt = time.Time{}
	return Effect{Kind: EffectOpenLink, Attempt: s.attempt}
}

// Acknowledge returns from Disconnected to Welcome.
func (s *Session) Acknowledge() Effect {
	if s.phase == PhaseDisconnected {
		s.phase = PhaseWelcome
	}
	return Effect{}
}

// Exit abandons the current or pending connection and returns to Welcome.
func (s *Session) Exit() Effect {
	switch s.phase {
	case PhaseConnected, PhaseConnecting:
		s.phase = PhaseWelcome
		s.input = s.input[:0]
		return Effect{Kind: EffectCloseLink, Attempt: s.attempt}
	default:
		return Effect{}
	}
}

func (s *Session) Quit() Effect {
	return Effect{Kind: EffectExit}
}

func (s *Session) LinkEstablished(attempt uint64) {
	if attempt != s.attempt || s.phase != PhaseConnecting {
		return
	}
	s.phase = PhaseConnected
	s.startedAt = s.now()
}

func (s *Session) LinkFailed(attempt uint64, msg string) {
	if attempt != s.attempt || s.phase != PhaseConnecting {
		return
	}
	s.disconnect(msg)
}

func (s *Session) LinkDropped(attempt uint64, msg string) {
	if attempt != s.attempt || s.phase != PhaseConnected {
		return
	}
	s.disconnect(msg)
}

func (s *Session) disconnect(msg string) {
	s.phase = PhaseDisconnected
	s.errMsg = msg
}

// SnapshotReceived replaces the local replica with text. The last snapshot
// received always wins.
func (s *Session) SnapshotReceived(attempt uint64, text string) {
	if attempt != s.attempt || s.phase != PhaseConnected {
		return
	}
	s.text = text
}

func (s *Session) Type(r rune) {
	if s.phase == PhaseConnected {
		s.input = append(s.input, r)
	}
}

func (s *Session) Backspace() {
	if s.phase == PhaseConnected && len(s.input) > 0 {
		s.input = s.input[:len(s.input)-1]
	}
}

// Submit turns the input buffer into a contribution. A buffer that is not a
// valid contribution for the mode is left as it is and nothing is sent.
func (s *Session) Submit() Effect {
	if s.phase != PhaseConnected {
		return Effect{}
	}
	contribution, ok := s.mode.Validate(string(s.input))
	if !ok {
		return Effect{}
	}
	s.input = s.input[:0]
	s.charsTyped += utf8.RuneCountInString(contribution) + 1
	s.updateWPM()
	return Effect{Kind: EffectSend, Attempt: s.attempt, Contribution: contribution}
}

// Tick refreshes the typing speed.
func (s *Session) Tick() {
	if s.phase == PhaseConnected {
		s.updateWPM()
	}
}

func (s *Session) updateWPM() {
	if s.startedAt.IsZero() {
		return
	}
	if elapsed := s.now().Sub(s.startedAt); elapsed > 0 {
		s.wpm = WordsPerMinute(s.charsTyped, elapsed)
	}
}

// WordsPerMinute counts five characters as one word.
func WordsPerMinute(chars int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(chars) / 5 * 60 / elapsed.Seconds()
}
