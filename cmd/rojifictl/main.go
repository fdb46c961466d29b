// Command rojifictl drives the Rojifi admin API from the terminal: it logs
// in, lists resources page by page and runs row actions.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/config"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/logger"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/metrics"
	"github.com/AntimonyIQ/rojifiadmin-sub001/sessionstore"
)

const usage = `usage: rojifictl [-config file] [-base-url url] [-v] <command> [flags]

commands:
  login    -token T [-expires 8h]
  logout
  whoami
  list     -resource R [-page N] [-limit N] [-search S] [-filter k=v ...] [-team ID]
  action   -resource R -verb V -id ID[,ID...] [-reason S] [-team ID]`

// Config holds the process streams.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns the standard streams.
func DefaultConfig() Config {
	return Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// app is everything a command needs.
type app struct {
	cfg      *config.Config
	streams  Config
	logger   *zap.Logger
	sessions *rojifi.SessionManager
	registry *prometheus.Registry
}

func run(args []string, streams Config) error {
	fs := flag.NewFlagSet("rojifictl", flag.ContinueOnError)
	fs.SetOutput(streams.Stderr)
	fs.Usage = func() { fmt.Fprintln(streams.Stderr, usage) }
	configPath := fs.String("config", "", "config file")
	baseURL := fs.String("base-url", "", "API base URL, overrides config")
	verbose := fs.Bool("v", false, "debug logging")

	if len(args) > 0 {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg.Session)
	if err != nil {
		return err
	}
	defer closeStore()

	a := &app{
		cfg:      cfg,
		streams:  streams,
		logger:   log,
		sessions: rojifi.NewSessionManager(store, rojifi.WithSessionLogger(log)),
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		err = a.login(ctx, cmdArgs)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "list":
		err = a.list(ctx, cmdArgs)
	case "action":
		err = a.action(ctx, cmdArgs)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}

	if a.registry != nil {
		if werr := metrics.WriteText(streams.Stderr, a.registry); werr != nil {
			log.Warn("write metrics", zap.Error(werr))
		}
	}
	return err
}

func openStore(cfg config.SessionConfig) (rojifi.SessionStore, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sessionstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreMemory:
		return sessionstore.NewMemoryStore(), func() {}, nil
	default:
		return sessionstore.NewFileStore(cfg.Path), func() {}, nil
	}
}

// client resumes the stored session and builds a client bound to it.
func (a *app) client(ctx context.Context) (*rojifi.Client, error) {
	if _, err := a.sessions.Resume(ctx); err != nil {
		return nil, present(err)
	}

	opts := []rojifi.Option{
		rojifi.WithBaseURL(a.cfg.API.BaseURL),
		rojifi.WithTimeout(a.cfg.API.Timeout),
		rojifi.WithRetries(a.cfg.API.Retries),
		rojifi.WithLogger(a.logger),
		rojifi.WithUnauthorizedHandler(a.sessions.Invalidate),
	}
	if a.cfg.API.RateLimit > 0 {
		opts = append(opts, rojifi.WithRateLimit(a.cfg.API.RateLimit, a.cfg.API.RateBurst))
	}
	if a.registry != nil {
		opts = append(opts, rojifi.WithMetrics(a.registry))
	}
	return rojifi.New(a.sessions, opts...)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.streams.Stderr)
	token := fs.String("token", "", "bearer token, read from stdin when empty")
	expires := fs.Duration("expires", 0, "token lifetime when the token carries no exp claim")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t := *token
	if t == "" {
		line, err := bufio.NewReader(a.streams.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		t = strings.TrimSpace(line)
	}

	var opts []rojifi.StartOption
	if *expires > 0 {
		opts = append(opts, rojifi.WithTokenExpiry(time.Now().Add(*expires)))
	}

	sess, err := a.sessions.Start(ctx, t, opts...)
	if err != nil {
		return present(err)
	}
	fmt.Fprintf(a.streams.Stdout, "logged in on device %s (key %s)\n", sess.DeviceID(), sess.Fingerprint())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.sessions.End(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.streams.Stdout, "logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.sessions.Resume(ctx)
	if err != nil {
		return present(err)
	}

	expiry := "unknown"
	if !sess.ExpiresAt().IsZero() {
		expiry = sess.ExpiresAt().Format(time.RFC3339)
	}
	fmt.Fprintf(a.streams.Stdout, "device:  %s\nkey:     %s\nexpires: %s\n", sess.DeviceID(), sess.Fingerprint(), expiry)
	return nil
}

// present replaces err with the text an operator should see. The original
// error is kept for errors.Is.
func present(err error) error {
	return &presentedError{err: err}
}

type presentedError struct {
	err error
}

func (e *presentedError) Error() string { return rojifi.UserMessage(e.err) }
func (e *presentedError) Unwrap() error { return e.err }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
