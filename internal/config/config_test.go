package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

const validYAML = `
store:
  path: "/var/lib/wordbook/words.db"
log:
  level: "warn"
  format: "json"
book:
  default_name: "english"
  id_scheme: "positional"
  ignore_case: true
proficiency:
  memory_lambda_days: 21
  max_penalty: 0.5
import:
  repos_dir: "/tmp/lists"
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	cfg, err = Load(flagSet(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeYAML(t, validYAML)
	cfg, err := Load(flagSet(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/wordbook/words.db", cfg.Store.Path)
	assert.Equal(t, LogConfig{Level: "warn", Format: "json"}, cfg.Log)
	assert.Equal(t, BookConfig{DefaultName: "english", IDScheme: "positional", IgnoreCase: true}, cfg.Book)
	assert.Equal(t, "/tmp/lists", cfg.Import.ReposDir)

	assert.Equal(t, 21.0, cfg.Proficiency.MemoryLambdaDays)
	assert.Equal(t, 0.5, cfg.Proficiency.MaxPenalty)
	assert.Equal(t, Default().Proficiency.RightWeight, cfg.Proficiency.RightWeight, "unset keys keep defaults")
}

func TestLoadPriority(t *testing.T) {
	path := writeYAML(t, validYAML)
	t.Setenv("WORDBOOK_LOG__LEVEL", "debug")
	t.Setenv("WORDBOOK_BOOK__DEFAULT_NAME", "from-env")
	t.Setenv("WORDBOOK_PROFICIENCY__BASE_FLOOR", "0.1")

	cfg, err := Load(flagSet(t, "--config", path, "--book.default_name", "from-flag"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level, "env beats yaml")
	assert.Equal(t, "json", cfg.Log.Format, "yaml beats defaults")
	assert.Equal(t, "from-flag", cfg.Book.DefaultName, "flag beats env")
	assert.Equal(t, 0.1, cfg.Proficiency.BaseFloor)
	assert.Equal(t, "/var/lib/wordbook/words.db", cfg.Store.Path, "unchanged flag keeps yaml value")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(flagSet(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(flagSet(t, "--config", writeYAML(t, "log: [")))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("WORDBOOK_LOG__FORMAT", "xml")
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Format")
	})

	t.Run("invalid proficiency", func(t *testing.T) {
		_, err := Load(flagSet(t, "--config", writeYAML(t, "proficiency:\n  max_penalty: 2\n")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MaxPenalty")
	})
}

func TestIDFunc(t *testing.T) {
	assert.Equal(t, "3", BookConfig{IDScheme: "positional"}.IDFunc()(3))
	assert.Len(t, BookConfig{IDScheme: "uuid"}.IDFunc()(3), 36)
	assert.Len(t, BookConfig{}.IDFunc()(0), 36)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "key", "value")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "value", line["key"])
	assert.Same(t, log, slog.Default())

	buf.Reset()
	NewLogger(LogConfig{Level: "bogus", Format: "text"}, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
