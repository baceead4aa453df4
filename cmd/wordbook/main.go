package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/config"
	"github.com/conorfennell/wordbook/internal/library"
	"github.com/conorfennell/wordbook/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "wordbook:", err)
		os.Exit(1)
	}
}

// app is what every command runs against.
type app struct {
	cfg   *config.Config
	lib   *library.Library
	clock clock.Clock
	out   io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"add":          {"add WORD -m 'pos: meaning'... [-s FORM]... [--note TEXT] [--truncate]", cmdAdd},
	"rm":           {"rm WORD | rm --id ID", cmdRemove},
	"list":         {"list [--sort priority|dictionary|created] [--rev]", cmdList},
	"show":         {"show WORD", cmdShow},
	"search":       {"search QUERY", cmdSearch},
	"review":       {"review ID SET MEANING --dir word|meaning --correct|--wrong", cmdReview},
	"next":         {"next [-n COUNT]", cmdNext},
	"books":        {"books", cmdBooks},
	"use":          {"use BOOK", cmdUse},
	"pos":          {"pos [TAG]", cmdPOS},
	"export":       {"export [-o FILE]", cmdExport},
	"import":       {"import FILE", cmdImport},
	"import-lists": {"import-lists DIR|GIT_URL...", cmdImportLists},
	"reset":        {"reset --yes", cmdReset},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("wordbook", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	config.Flags(fs)
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return errors.New("no command given")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		usage(stderr, fs)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log, stderr)

	db, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	defer db.Close()

	clk := clock.System{}
	lib, err := library.Open(db,
		library.WithLogger(log),
		library.WithClock(clk),
		library.WithScorer(&cfg.Proficiency),
		library.WithDefaultBook(cfg.Book.DefaultName),
		library.WithDefaultIgnoreCase(cfg.Book.IgnoreCase),
		library.WithIDFunc(cfg.Book.IDFunc()),
		library.WithUnknownTagHook(func(tag string) {
			log.Warn("stored data uses a type this version does not know", "tag", tag)
		}),
	)
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, lib: lib, clock: clk, out: stdout}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}
	return nil
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: wordbook [flags] COMMAND [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, fs.FlagUsages())
}

// commandFlags returns a flag set for one command that reports errors
// instead of exiting.
func commandFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
