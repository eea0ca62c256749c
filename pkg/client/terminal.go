package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/arjav0703/typing-game/pkg/session"
)

const HelpText = `Commands:
  <enter>      connect from the welcome screen, retry after a disconnect
  <text>       contribute text while connected
  /back        leave the session, or dismiss a disconnect
  /quit        exit
  /help        show this help`

// Terminal is a line based Renderer. It only writes when something worth
// showing changed since the last Render.
type Terminal struct {
	out      io.Writer
	rendered bool
	last     View

	dim   *color.Color
	title *color.Color
	text  *color.Color
	err   *color.Color
}

func NewTerminal(out io.Writer, noColor bool) *Terminal {
	color.NoColor = noColor
	return &Terminal{
		out:   out,
		dim:   color.New(color.FgHiBlack),
		title: color.New(color.FgCyan, color.Bold),
		text:  color.New(color.FgGreen),
		err:   color.New(color.FgRed),
	}
}

func (t *Terminal) Help() {
	fmt.Fprintln(t.out, HelpText)
}

func (t *Terminal) Render(v View) {
	prev, first := t.last, !t.rendered
	t.last, t.rendered = v, true

	if first || v.Phase != prev.Phase {
		switch v.Phase {
		case PhaseWelcome:
			fmt.Fprintln(t.out, t.title.Sprintf("Typing game (%s mode)", v.Mode))
			fmt.Fprintln(t.out, t.dim.Sprint("Press enter to join, /help for commands."))
		case PhaseConnecting:
			fmt.Fprintln(t.out, t.dim.Sprint("Connecting..."))
		case PhaseConnected:
			fmt.Fprintln(t.out, t.title.Sprint("Connected. Type and press enter to contribute."))
		case PhaseDisconnected:
			fmt.Fprintln(t.out, t.err.Sprintf("Disconnected: %s", v.Error))
			fmt.Fprintln(t.out, t.dim.Sprint("Press enter to retry or /back to return."))
		}
	}
	if v.Phase != PhaseConnected {
		return
	}
	if v.Text != prev.Text || v.Phase != prev.Phase {
		fmt.Fprintf(t.out, "%s %s\n", t.dim.Sprint("text ›"), t.text.Sprint(v.Text))
	}
	if v.CharsTyped != prev.CharsTyped {
		fmt.Fprintln(t.out, t.dim.Sprintf("%d chars, %.1f wpm", v.CharsTyped, v.WPM))
	}
}

// ParseLine turns one line of user input into inputs. A blank line is the
// connect key. Every word of the line becomes its own contribution, or every
// non-space character in chars mode. help reports that the line asked for the
// help text.
func ParseLine(mode session.Mode, line string) (inputs []Input, help bool) {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return []Input{{Kind: InputConnect}}, false
	case "/back":
		return []Input{{Kind: InputBack}}, false
	case "/quit", "/exit":
		return []Input{{Kind: InputQuit}}, false
	case "/help":
		return nil, true
	}
	if mode == session.ModeChars {
		for _, r := range trimmed {
			if unicode.IsSpace(r) {
				continue
			}
			inputs = append(inputs, Input{Kind: InputText, Text: string(r)}, Input{Kind: InputSubmit})
		}
		return inputs, false
	}
	for _, word := range strings.Fields(trimmed) {
		inputs = append(inputs, Input{Kind: InputText, Text: word}, Input{Kind: InputSubmit})
	}
	return inputs, false
}

// ReadInputs feeds lines from r into out until r is exhausted or ctx is done.
// out is closed on return.
func ReadInputs(ctx context.Context, r io.Reader, mode session.Mode, help func(), out chan<- Input) error {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		inputs, wantHelp := ParseLine(mode, scanner.Text())
		if wantHelp {
			help()
			continue
		}
		for _, in := range inputs {
			select {
			case out <- in:
			case <-ctx.Done():
				return nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
