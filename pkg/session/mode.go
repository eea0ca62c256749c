package session

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode decides what shape a contribution must have. It is a deployment-time
// choice shared by the coordinator and its participants and is never sent on
// the wire.
type Mode string

const (
	// ModeWords accepts one trimmed, non-empty word per contribution. A word has
	// no whitespace inside it. Words are joined with a single space.
	ModeWords Mode = "words"
	// ModeChars accepts exactly one non-whitespace character per contribution.
	ModeChars Mode = "chars"
)

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeWords, ModeChars:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: expected %q or %q", raw, ModeWords, ModeChars)
	}
}

// Validate normalises raw into a contribution. The second return value is
// false when raw can never become a contribution in this mode.
func (m Mode) Validate(raw string) (string, bool) {
	if !utf8.ValidString(raw) {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	switch m {
	case ModeWords:
		if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
			return "", false
		}
		return trimmed, true
	case ModeChars:
		r, size := utf8.DecodeRuneInString(trimmed)
		if size != len(trimmed) || unicode.IsSpace(r) {
			return "", false
		}
		return trimmed, true
	default:
		return "", false
	}
}

// piece is what gets appended to current for an already validated
// contribution.
func (m Mode) piece(current, contribution string) string {
	if m == ModeWords && current != "" {
		return " " + contribution
	}
	return contribution
}

func (m Mode) String() string {
	return string(m)
}
