// routegate-session drives the client session manager against the identity
// API from a terminal.
//
// Usage:
//
//	routegate-session --base-url https://api.example.com login --email a@b.c
//	routegate-session --base-url https://api.example.com whoami
//	routegate-session --base-url https://api.example.com logout
//
// The credential cookie is kept in --cookie-file between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/MrEthical07/routegate"
	"github.com/MrEthical07/routegate/session"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if msg := session.MessageOf(err); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	baseURL    string
	cookieFile string
	timeout    time.Duration
	verbose    bool

	email    string
	name     string
	password string

	out io.Writer
	err io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{out: stdout, err: stderr}

	fs := pflag.NewFlagSet("routegate-session", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.baseURL, "base-url", os.Getenv("ROUTEGATE_API_URL"), "identity API origin")
	fs.StringVar(&c.cookieFile, "cookie-file", defaultCookieFile(), "where the credential cookie is kept")
	fs.DurationVar(&c.timeout, "timeout", 10*time.Second, "per-command deadline")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "log session activity to stderr")
	fs.StringVar(&c.email, "email", "", "account email (login, register)")
	fs.StringVar(&c.name, "name", "", "display name (register)")
	fs.StringVar(&c.password, "password", "", "password; prompted when empty")
	fs.SetInterspersed(true)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return errors.New("expected one command: whoami, login, register or logout")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.dispatch(ctx, rest[0])
}

func (c *cli) dispatch(ctx context.Context, command string) error {
	backend, err := session.NewHTTPBackend(session.Config{BaseURL: c.baseURL})
	if err != nil {
		return err
	}
	store := &cookieStore{path: c.cookieFile, jar: backend.Jar(), baseURL: c.baseURL}
	if err := store.load(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.err, &slog.HandlerOptions{Level: level}))
	m := session.NewManager(backend, session.WithLogger(logger))

	switch command {
	case "whoami":
		return c.whoami(ctx, m)
	case "login":
		err = c.login(ctx, m)
	case "register":
		err = c.register(ctx, m)
	case "logout":
		m.Logout(ctx)
		fmt.Fprintln(c.out, "logged out")
		// The backend may not have expired the cookie; forget it locally anyway.
		return store.save(routegate.CanonicalCookieName)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}
	return store.save()
}

func (c *cli) whoami(ctx context.Context, m *session.Manager) error {
	st := m.Bootstrap(ctx)
	if !st.Authenticated() {
		fmt.Fprintln(c.out, "not logged in")
		return nil
	}
	return printProfile(c.out, st.Identity)
}

func (c *cli) login(ctx context.Context, m *session.Manager) error {
	if c.email == "" {
		return errors.New("--email is required")
	}
	pw, err := c.readPassword()
	if err != nil {
		return err
	}
	resp, err := m.Login(ctx, c.email, pw)
	if err != nil {
		return err
	}
	return printProfile(c.out, resp.User)
}

func (c *cli) register(ctx context.Context, m *session.Manager) error {
	if c.email == "" || c.name == "" {
		return errors.New("--name and --email are required")
	}
	pw, err := c.readPassword()
	if err != nil {
		return err
	}
	resp, err := m.Register(ctx, c.name, c.email, pw)
	if err != nil {
		return err
	}
	return printProfile(c.out, resp.User)
}
