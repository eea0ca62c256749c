// Package config resolves command line flags and environment variables for
// the server and client binaries. Flags win over the environment, which wins
// over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/arjav0703/typing-game/pkg/client"
	"github.com/arjav0703/typing-game/pkg/session"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 9001
	DefaultMode           = session.ModeWords
	DefaultBackupInterval = 5 * time.Second

	envPrefix = "TYPING_"
)

var ErrInvalidHost = errors.New("invalid IP address or hostname")

// LoadEnv reads a .env file from the working directory when there is one.
func LoadEnv() {
	_ = godotenv.Load()
}

type Server struct {
	Host           string
	Port           int
	Mode           session.Mode
	QueueSize      int
	Archive        string
	BackupInterval time.Duration
	RenderHistory  bool
	LogLevel       slog.Level
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func ParseServer(args []string, getenv func(string) string) (Server, error) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.String("host", DefaultHost, "address to listen on (or TYPING_HOST)")
	flags.Int("port", DefaultPort, "port to listen on (or TYPING_PORT)")
	flags.String("mode", string(DefaultMode), "contribution shape: words or chars (or TYPING_MODE)")
	flags.Int("queue", session.DefaultQueueSize, "snapshots buffered per participant before the oldest is dropped")
	flags.String("archive", "", "sqlite file to journal the session into, empty to disable (or TYPING_ARCHIVE)")
	flags.Duration("backup-interval", DefaultBackupInterval, "how often the archive is refreshed")
	flags.Bool("render-history", false, "render the contribution history to an SVG file on shutdown")
	flags.String("log-level", "info", "debug, info, warn or error (or TYPING_LOG_LEVEL)")
	if err := flags.Parse(args); err != nil {
		return Server{}, err
	}
	r := resolver{flags: flags, getenv: getenv}

	cfg := Server{
		Host:           r.string("host", "HOST"),
		Archive:        r.string("archive", "ARCHIVE"),
		RenderHistory:  r.bool("render-history", "RENDER_HISTORY"),
		BackupInterval: r.duration("backup-interval", "BACKUP_INTERVAL"),
		QueueSize:      r.int("queue", "QUEUE"),
		Port:           r.int("port", "PORT"),
	}
	var err error
	if cfg.Mode, err = session.ParseMode(r.string("mode", "MODE")); err != nil {
		return Server{}, err
	}
	if cfg.LogLevel, err = parseLevel(r.string("log-level", "LOG_LEVEL")); err != nil {
		return Server{}, err
	}
	if err := r.err(); err != nil {
		return Server{}, err
	}
	if err := validatePort(cfg.Port); err != nil {
		return Server{}, err
	}
	if cfg.QueueSize <= 0 {
		return Server{}, fmt.Errorf("queue size must be positive, got %d", cfg.QueueSize)
	}
	if cfg.BackupInterval <= 0 {
		return Server{}, fmt.Errorf("backup interval must be positive, got %s", cfg.BackupInterval)
	}
	return cfg, nil
}

type Client struct {
	Host     string
	Port     int
	Mode     session.Mode
	Tick     time.Duration
	NoColor  bool
	LogLevel slog.Level
}

func (c Client) URL() string {
	return client.ServerURL(c.Host, c.Port)
}

// ParseClient takes the coordinator host as the only positional argument.
func ParseClient(args []string, getenv func(string) string) (Client, error) {
	flags := pflag.NewFlagSet("client", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "coordinator port (or TYPING_PORT)")
	flags.String("mode", string(DefaultMode), "contribution shape: words or chars (or TYPING_MODE)")
	flags.Duration("tick", client.DefaultTick, "screen refresh interval")
	flags.Bool("no-color", false, "disable ANSI colors")
	flags.String("log-level", "warn", "debug, info, warn or error (or TYPING_LOG_LEVEL)")
	if err := flags.Parse(args); err != nil {
		return Client{}, err
	}
	if flags.NArg() > 1 {
		return Client{}, fmt.Errorf("expected at most one host argument, got %d", flags.NArg())
	}
	r := resolver{flags: flags, getenv: getenv}

	cfg := Client{
		Host:    getenv(envPrefix + "HOST"),
		Port:    r.int("port", "PORT"),
		Tick:    r.duration("tick", "TICK"),
		NoColor: r.bool("no-color", "NO_COLOR"),
	}
	if flags.NArg() == 1 {
		cfg.Host = flags.Arg(0)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if !client.ValidHost(cfg.Host) {
		return Client{}, fmt.Errorf("%w: %s", ErrInvalidHost, cfg.Host)
	}
	var err error
	if cfg.Mode, err = session.ParseMode(r.string("mode", "MODE")); err != nil {
		return Client{}, err
	}
	if cfg.LogLevel, err = parseLevel(r.string("log-level", "LOG_LEVEL")); err != nil {
		return Client{}, err
	}
	if err := r.err(); err != nil {
		return Client{}, err
	}
	if err := validatePort(cfg.Port); err != nil {
		return Client{}, err
	}
	if cfg.Tick <= 0 {
		return Client{}, fmt.Errorf("tick must be positive, got %s", cfg.Tick)
	}
	return cfg, nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port out of range: %d", port)
	}
	return nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

// resolver picks a flag value when it was set explicitly, else the matching
// environment variable, else the flag default. The first conversion error is
// kept for err.
type resolver struct {
	flags  *pflag.FlagSet
	getenv func(string) string
	first  error
}

func (r *resolver) lookup(name, env string) (string, bool) {
	if r.flags.Changed(name) {
		return "", false
	}
	if v := r.getenv(envPrefix + env); v != "" {
		return v, true
	}
	return "", false
}

func (r *resolver) fail(env string, err error) {
	if r.first == nil {
		r.first = fmt.Errorf("invalid %s%s: %w", envPrefix, env, err)
	}
}

func (r *resolver) err() error {
	return r.first
}

func (r *resolver) string(name, env string) string {
	if v, ok := r.lookup(name, env); ok {
		return v
	}
	v, _ := r.flags.GetString(name)
	return v
}

func (r *resolver) int(name, env string) int {
	if v, ok := r.lookup(name, env); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		r.fail(env, err)
	}
	v, _ := r.flags.GetInt(name)
	return v
}

func (r *resolver) bool(name, env string) bool {
	if v, ok := r.lookup(name, env); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		r.fail(env, err)
	}
	v, _ := r.flags.GetBool(name)
	return v
}

func (r *resolver) duration(name, env string) time.Duration {
	if v, ok := r.lookup(name, env); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
		r.fail(env, err)
	}
	v, _ := r.flags.GetDuration(name)
	return v
}
