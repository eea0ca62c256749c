package client

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjav0703/typing-game/pkg/session"
)

func TestParseLine(t *testing.T) {
	inputs, help := ParseLine(session.ModeWords, "  hello  ")
	assert.False(t, help)
	assert.Equal(t, []Input{{Kind: InputText, Text: "hello"}, {Kind: InputSubmit}}, inputs)

	inputs, _ = ParseLine(session.ModeWords, "hello  big\tworld")
	assert.Equal(t, []Input{
		{Kind: InputText, Text: "hello"}, {Kind: InputSubmit},
		{Kind: InputText, Text: "big"}, {Kind: InputSubmit},
		{Kind: InputText, Text: "world"}, {Kind: InputSubmit},
	}, inputs)

	inputs, _ = ParseLine(session.ModeWords, "")
	assert.Equal(t, []Input{{Kind: InputConnect}}, inputs)

	inputs, _ = ParseLine(session.ModeWords, "/back")
	assert.Equal(t, []Input{{Kind: InputBack}}, inputs)

	inputs, _ = ParseLine(session.ModeWords, "/quit")
	assert.Equal(t, []Input{{Kind: InputQuit}}, inputs)

	inputs, help = ParseLine(session.ModeWords, "/help")
	assert.True(t, help)
	assert.Empty(t, inputs)

	inputs, _ = ParseLine(session.ModeChars, "a b")
	assert.Equal(t, []Input{
		{Kind: InputText, Text: "a"}, {Kind: InputSubmit},
		{Kind: InputText, Text: "b"}, {Kind: InputSubmit},
	}, inputs)
}

func TestReadInputs(t *testing.T) {
	out := make(chan Input, 16)
	helped := 0
	err := ReadInputs(context.Background(), strings.NewReader("\nhi\n/help\n/quit\n"), session.ModeWords, func() { helped++ }, out)
	require.NoError(t, err)

	var got []Input
	for in := range out {
		got = append(got, in)
	}
	assert.Equal(t, []Input{
		{Kind: InputConnect},
		{Kind: InputText, Text: "hi"},
		{Kind: InputSubmit},
		{Kind: InputQuit},
	}, got)
	assert.Equal(t, 1, helped)
}

func TestTerminalOnlyRendersChanges(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, true)

	welcome := View{Phase: PhaseWelcome, Mode: session.ModeWords}
	term.Render(welcome)
	assert.Contains(t, buf.String(), "Typing game (words mode)")

	buf.Reset()
	term.Render(welcome)
	assert.Empty(t, buf.String())

	connected := View{Phase: PhaseConnected, Mode: session.ModeWords, Text: "hello"}
	term.Render(connected)
	assert.Contains(t, buf.String(), "Connected.")
	assert.Contains(t, buf.String(), "text › hello")

	buf.Reset()
	connected.Input = "wor"
	term.Render(connected)
	assert.Empty(t, buf.String(), "the input buffer is echoed by the terminal itself")

	connected.Text = "hello world"
	connected.CharsTyped = 6
	connected.WPM = 12
	term.Render(connected)
	assert.Contains(t, buf.String(), "text › hello world")
	assert.Contains(t, buf.String(), "6 chars, 12.0 wpm")

	buf.Reset()
	term.Render(View{Phase: PhaseDisconnected, Error: "connection lost"})
	assert.Contains(t, buf.String(), "Disconnected: connection lost")
}
