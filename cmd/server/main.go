package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arjav0703/typing-game/pkg/archive"
	"github.com/arjav0703/typing-game/pkg/config"
	"github.com/arjav0703/typing-game/pkg/coordinator"
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
	config.LoadEnv()
	cfg, err := config.ParseServer(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	store, err := session.NewStore(cfg.Mode)
	if err != nil {
		return err
	}
	hub := session.NewHub(cfg.QueueSize)

	var backups *journal
	if cfg.Archive != "" {
		slog.Info("Opening archive", "path", cfg.Archive)
		a, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer a.Close()
		backups = newJournal(a, store)
	}

	srv := coordinator.NewServer(store, hub, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := new(sync.WaitGroup)

	if backups != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.NewTicker(cfg.BackupInterval)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					backups.record(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: srv.Router()}

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("Listening", "addr", cfg.Addr(), "mode", cfg.Mode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server listen failed", "err", err)
			cancel()
		}
	}()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-exit:
		slog.Info("Signal caught", "sig", sig)
	case <-ctx.Done():
	}
	cancel()
	hub.Close()
	_ = httpServer.Close()

	wg.Wait()

	final := store.Current()
	slog.Info("session finished", "version", final.Version, "text", final.Text)

	if backups != nil {
		backups.record(context.Background())
	}

	if cfg.RenderHistory {
		doc, err := store.Fork()
		if err != nil {
			return fmt.Errorf("failed to fork session: %w", err)
		}
		if svgPath, err := viz.RenderHistoryToTemp(doc, session.TextPath); err != nil {
			slog.Error("failed to render", "err", err)
		} else {
			slog.Info("rendered", "path", "file://"+svgPath)
		}
	}
	return nil
}

// journal refreshes the archive record of the running session.
type journal struct {
	archive   *archive.Archive
	store     *session.Store
	id        string
	startedAt time.Time
}

func newJournal(a *archive.Archive, store *session.Store) *journal {
	now := time.Now()
	return &journal{archive: a, store: store, id: fmt.Sprintf("%d", now.UnixNano()), startedAt: now}
}

func (j *journal) record(ctx context.Context) {
	sn, saved := j.store.Checkpoint()
	changed, err := j.archive.Record(ctx, archive.Record{
		ID:        j.id,
		StartedAt: j.startedAt,
		UpdatedAt: time.Now(),
		Version:   sn.Version,
		Text:      sn.Text,
		Content:   saved,
	})
	if err != nil {
		slog.Error("failed to back up session", "err", err)
	} else if changed {
		slog.Info("backed up", "session", j.id, "version", sn.Version)
	}
}
