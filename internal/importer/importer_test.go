package importer

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/library"
	"github.com/conorfennell/wordbook/internal/parser"
	"github.com/conorfennell/wordbook/internal/repository"
	"github.com/conorfennell/wordbook/internal/storage"
)

var t0 = time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) (*library.Library, *storage.Memory, *Importer) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gw := storage.NewMemory()
	lib, err := library.Open(gw, library.WithLogger(log), library.WithClock(clock.Fixed(t0)))
	require.NoError(t, err)
	return lib, gw, New(lib, WithLogger(log), WithClock(clock.Fixed(t0)), WithReposDir(t.TempDir()))
}

func TestRunImportsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "verbs.md"), "W: run\nM: v: to move fast\nS: ran\n---\nW: walk\nM: v: to move on foot\n")
	writeFile(t, filepath.Join(dir, "x-nested", "nouns.TXT"), "W: run\nM: n: a jog\nN: also a verb\n")
	writeFile(t, filepath.Join(dir, "ignored.json"), "W: skip\nM: never read\n")
	writeFile(t, filepath.Join(dir, ".git", "notes.md"), "W: hidden\nM: never read\n")

	lib, gw, im := setup(t)
	report, err := im.Run(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 3, report.Entries)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 1, report.Merged)

	book := lib.Active()
	assert.Equal(t, 2, book.Len())
	assert.Empty(t, book.WordsByText("skip"))
	assert.Empty(t, book.WordsByText("hidden"))

	run := book.WordsByText("run")[0]
	require.Len(t, run.MeaningSets, 2)
	assert.Equal(t, "v", run.MeaningSets[0].PartOfSpeech)
	assert.Equal(t, "n", run.MeaningSets[1].PartOfSpeech)
	assert.Equal(t, domain.SourceImportedFromBook, run.MeaningSets[1].Meanings[0].Source)
	assert.Equal(t, []domain.SynForm{{Form: "ran", Source: domain.SourceImportedFromBook}}, run.SynForms)
	assert.Equal(t, "also a verb", run.Note)

	stored, ok, err := gw.Get(library.KeyWords)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, stored, "to move on foot")
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "words.md"), "W: run\nM: v: to move fast\n")

	lib, _, im := setup(t)
	_, err := im.Run(context.Background(), dir)
	require.NoError(t, err)
	report, err := im.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Merged)
	run := lib.Active().WordsByText("run")[0]
	require.Len(t, run.MeaningSets, 1)
	assert.Len(t, run.MeaningSets[0].Meanings, 1)
}

func TestRunSingleFileAndMissingSource(t *testing.T) {
	file := filepath.Join(t.TempDir(), "words.txt")
	writeFile(t, file, "W: go\nM: to move\n")

	lib, _, im := setup(t)
	report, err := im.Run(context.Background(), file, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Added)
	require.Len(t, report.Errors, 1)
	assert.Error(t, report.Err())

	goWord := lib.Active().WordsByText("go")[0]
	assert.Equal(t, domain.DefaultPartOfSpeech, goWord.MeaningSets[0].PartOfSpeech)
}

func TestRunCancelled(t *testing.T) {
	_, _, im := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Run(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSeed(t *testing.T) {
	seed := Seed(parser.Entry{
		Word: "run",
		Meanings: []parser.Meaning{
			{POS: "v", Text: "to move fast"},
			{Text: "untagged"},
			{POS: "v", Text: "to operate"},
		},
		Note: "n",
	}, t0)

	require.Len(t, seed.Meanings, 2)
	assert.Equal(t, "v", seed.Meanings[0].PartOfSpeech)
	assert.Len(t, seed.Meanings[0].Meanings, 2)
	assert.Equal(t, domain.DefaultPartOfSpeech, seed.Meanings[1].PartOfSpeech)
	assert.Equal(t, t0, seed.Meanings[0].Meanings[0].ByWord.FirstLearned)
	assert.NoError(t, domain.Validate(&seed))

	lib, _, _ := setup(t)
	require.NoError(t, lib.AddWord(seed, repository.Append))
}
