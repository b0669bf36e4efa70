// Command eventctl is a small client for the eventify API. It keeps the last
// server-confirmed event list in a local badger snapshot and falls back to it
// when the server cannot be reached.
//
//	eventctl [-server URL] [-cache DIR] list
//	eventctl add -title T -date YYYY-MM-DD [-time HH:MM] [-category C] [-priority P] [-notes N]
//	eventctl done ID
//	eventctl rm ID
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"eventify/internal/client"
	"eventify/internal/logging"
	"eventify/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "eventctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("eventctl", flag.ContinueOnError)
	server := fs.String("server", envOr("EVENTIFY_URL", "http://localhost:8080"), "API base URL")
	cacheDir := fs.String("cache", defaultCacheDir(), "snapshot directory; empty keeps it in memory")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(logging.Config{Level: *logLevel, Format: "console"})

	if fs.NArg() == 0 {
		return errors.New("missing command: list, add, done or rm")
	}

	snap, err := client.OpenBadgerSnapshot(*cacheDir)
	if err != nil {
		return err
	}
	defer snap.Close()

	repo := client.NewRepository(client.New(*server, nil), snap)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "list":
		return list(ctx, repo, out)
	case "add":
		return add(ctx, repo, rest, out)
	case "done":
		return toggle(ctx, repo, rest, out)
	case "rm":
		return remove(ctx, repo, rest, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(ctx context.Context, repo *client.Repository, out io.Writer) error {
	src, err := repo.Load(ctx)
	if err != nil {
		if src == client.SourceEmpty {
			return err
		}
		fmt.Fprintf(out, "server unreachable, showing cached list (%v)\n", err)
	}
	printEvents(out, repo.Events())
	return nil
}

func add(ctx context.Context, repo *client.Repository, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "event title")
	date := fs.String("date", "", "YYYY-MM-DD")
	at := fs.String("time", "", "HH:MM")
	category := fs.String("category", "", "category name, created if missing")
	priority := fs.String("priority", "", "Low, Medium or High")
	notes := fs.String("notes", "", "free text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Refresh first so the mirrored snapshot keeps the full list.
	if _, err := repo.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("refresh before add")
	}

	fields := map[string]any{"title": *title, "date": *date}
	optional := map[string]string{"time": *at, "category": *category, "priority": *priority, "notes": *notes}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	created, err := repo.Add(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created #%d %s\n", created.ID, created.Title)
	return nil
}

func toggle(ctx context.Context, repo *client.Repository, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if _, err := repo.Load(ctx); err != nil {
		return err
	}
	updated, ok, err := repo.ToggleDone(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("event #%d not found", id)
	}
	fmt.Fprintf(out, "#%d done=%t\n", updated.ID, updated.Done)
	return nil
}

func remove(ctx context.Context, repo *client.Repository, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if _, err := repo.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("refresh before remove")
	}
	if err := repo.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted #%d\n", id)
	return nil
}

func parseID(args []string) (uint, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one event id")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid event id %q", args[0])
	}
	return uint(id), nil
}

func printEvents(out io.Writer, events []model.Event) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tTITLE\tCATEGORY\tPRIORITY\tDONE")
	for _, e := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			e.ID, e.Date, deref(e.Time), e.Title, deref(e.Category), e.Priority, e.Done)
	}
	w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "eventify")
}
