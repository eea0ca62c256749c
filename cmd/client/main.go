package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjav0703/typing-game/pkg/client"
	"github.com/arjav0703/typing-game/pkg/config"
)

func main() {
	if err := mainInner(); err != nil {
		if errors.Is(err, config.ErrInvalidHost) {
			fmt.Fprintln(os.Stderr, "Error: Invalid IP address or hostname")
			fmt.Fprintln(os.Stderr, "Usage: client [flags] [host]")
			os.Exit(1)
		}
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	config.LoadEnv()
	cfg, err := config.ParseClient(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-exit:
			logger.Info("Signal caught", "sig", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	term := client.NewTerminal(os.Stdout, cfg.NoColor)
	inputs := make(chan client.Input)
	go func() {
		if err := client.ReadInputs(ctx, os.Stdin, cfg.Mode, term.Help, inputs); err != nil {
			logger.Error("input stopped", "err", err)
		}
	}()

	connector := client.NewConnector(cfg.URL(), client.DialWebsocket, logger)
	app := client.NewApp(client.NewSession(cfg.Mode, time.Now), connector, term, cfg.Tick, logger)
	logger.Info("starting", "server", cfg.URL(), "mode", cfg.Mode)
	return app.Run(ctx, inputs)
}
