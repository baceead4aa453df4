// Package importer merges word lists from directories and git repositories
// into the active word book.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/gitsource"
	"github.com/conorfennell/wordbook/internal/library"
	"github.com/conorfennell/wordbook/internal/parser"
	"github.com/conorfennell/wordbook/internal/repository"
)

// Extensions lists the file suffixes that are parsed as word lists.
var Extensions = []string{".md", ".txt"}

// Report summarises one import run.
type Report struct {
	Files   int
	Entries int
	Added   int
	Merged  int
	Errors  []error
}

// Err joins the per-file and per-entry errors of the run.
func (r Report) Err() error { return errors.Join(r.Errors...) }

type Option func(*Importer)

func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

func WithClock(c clock.Clock) Option {
	return func(im *Importer) { im.clock = c }
}

// WithReposDir sets where git sources are checked out. Defaults to "repos".
func WithReposDir(dir string) Option {
	return func(im *Importer) { im.reposDir = dir }
}

// WithProgress receives git clone and pull progress.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) { im.progress = w }
}

type Importer struct {
	lib      *library.Library
	log      *slog.Logger
	clock    clock.Clock
	reposDir string
	progress io.Writer
}

func New(lib *library.Library, opts ...Option) *Importer {
	im := &Importer{
		lib:      lib,
		log:      slog.Default(),
		clock:    clock.System{},
		reposDir: "repos",
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Run reads every source, a local file or directory or a git URL, and
// merges the entries into the active book in Append mode. The library is
// persisted once at the end. Sources that fail are recorded in the report
// and skipped; only the final write error is returned.
func (im *Importer) Run(ctx context.Context, sources ...string) (Report, error) {
	var report Report
	var entries []parser.Entry

	im.log.Info("starting import", "sources", len(sources), "book", im.lib.Active().Name())
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path, err := im.resolve(ctx, source)
		if err != nil {
			im.log.Error("skipping source", "source", source, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		found, files, errs := im.collect(path)
		entries = append(entries, found...)
		report.Files += files
		report.Errors = append(report.Errors, errs...)
	}
	report.Entries = len(entries)

	now := im.clock.Now()
	err := im.lib.Mutate(func(r *repository.Repository) error {
		for _, e := range entries {
			existed := len(r.WordsByText(e.Word)) > 0
			if err := r.AddWord(Seed(e, now), repository.Append); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("line %d %q: %w", e.Line, e.Word, err))
				continue
			}
			if existed {
				report.Merged++
			} else {
				report.Added++
			}
		}
		return nil
	})

	im.log.Info("import complete",
		"files", report.Files,
		"entries", report.Entries,
		"added", report.Added,
		"merged", report.Merged,
		"errors", len(report.Errors),
	)
	if err != nil {
		return report, fmt.Errorf("persist import: %w", err)
	}
	return report, nil
}

func (im *Importer) resolve(ctx context.Context, source string) (string, error) {
	if !gitsource.IsURL(source) {
		return source, nil
	}
	localPath, err := gitsource.LocalPath(im.reposDir, source)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("create repos directory: %w", err)
	}
	if err := gitsource.Sync(ctx, im.log, source, localPath, im.progress); err != nil {
		return "", err
	}
	return localPath, nil
}

func (im *Importer) collect(root string) ([]parser.Entry, int, []error) {
	var entries []parser.Entry
	var errs []error
	files := 0

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !isWordList(d.Name()) {
			return nil
		}
		fileEntries, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		files++
		entries = append(entries, fileEntries...)
		im.log.Debug("parsed word list", "path", path, "entries", len(fileEntries))
		return nil
	})
	if walkErr != nil {
		im.log.Error("error walking directory", "path", root, "error", walkErr)
		errs = append(errs, fmt.Errorf("walking %s: %w", root, walkErr))
	}
	return entries, files, errs
}

func isWordList(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Seed converts a parsed entry into a repository seed. Meanings are grouped
// by part of speech in order of first appearance and marked as imported.
func Seed(e parser.Entry, now time.Time) repository.Seed {
	seed := repository.Seed{Text: e.Word, Note: e.Note}
	sets := make(map[string]*domain.WordMeaningSet)
	for _, m := range e.Meanings {
		pos := m.POS
		if pos == "" {
			pos = domain.DefaultPartOfSpeech
		}
		set, ok := sets[pos]
		if !ok {
			set = domain.NewMeaningSet(pos, domain.SourceImportedFromBook, now)
			sets[pos] = set
			seed.Meanings = append(seed.Meanings, set)
		}
		meaning := domain.NewMeaning(m.Text, now)
		meaning.Source = domain.SourceImportedFromBook
		set.Meanings = append(set.Meanings, meaning)
	}
	for _, form := range e.SynForms {
		seed.SynForms = append(seed.SynForms, domain.SynForm{Form: form, Source: domain.SourceImportedFromBook})
	}
	return seed
}
