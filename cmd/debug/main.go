package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/automerge/automerge-go"
	"github.com/spf13/pflag"

	"github.com/arjav0703/typing-game/pkg/archive"
	"github.com/arjav0703/typing-game/pkg/session"
	"github.com/arjav0703/typing-game/pkg/viz"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{})))

	svgVar := pflag.String("svg", "", "also render the history graph to this file, or \"temp\" for a temporary file")
	pflag.Parse()
	if pflag.NArg() != 1 {
		return fmt.Errorf("expected one position argument: the archive to read")
	}

	a, err := archive.Open(pflag.Arg(0))
	if err != nil {
		return err
	}
	defer a.Close()
	rec, err := a.Latest(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	doc, err := automerge.Load(rec.Content)
	if err != nil {
		return fmt.Errorf("failed to load doc: %w", err)
	}
	slog.Info("loaded session", "id", rec.ID, "started", rec.StartedAt, "updated", rec.UpdatedAt, "version", rec.Version)
	slog.Info("loaded heads", "heads", doc.Heads())

	steps, err := viz.History(doc, session.TextPath)
	if err != nil {
		return err
	}
	for i, step := range steps {
		fmt.Printf("%4d %s %s@%d %q -> %q\n", i, step.Hash[:8], step.Actor, step.Seq, step.Contribution, step.Text)
	}

	switch *svgVar {
	case "":
	case "temp":
		svgPath, err := viz.RenderHistoryToTemp(doc, session.TextPath)
		if err != nil {
			return err
		}
		slog.Info("rendered", "path", "file://"+svgPath)
	default:
		if err := viz.RenderHistoryToSvg(doc, session.TextPath, *svgVar); err != nil {
			return err
		}
		slog.Info("rendered", "path", "file://"+*svgVar)
	}
	return nil
}
