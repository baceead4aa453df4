package config

import (
	"github.com/conorfennell/wordbook/internal/proficiency"
	"github.com/conorfennell/wordbook/internal/repository"
)

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "wordbook.yaml"

// EnvPrefix marks environment variables read by Load. Nested keys are
// separated by a double underscore: WORDBOOK_STORE__PATH sets store.path.
const EnvPrefix = "WORDBOOK_"

// Config is the root application configuration.
type Config struct {
	Store       StoreConfig        `koanf:"store"`
	Log         LogConfig          `koanf:"log"`
	Book        BookConfig         `koanf:"book"`
	Proficiency proficiency.Params `koanf:"proficiency"`
	Import      ImportConfig       `koanf:"import"`
}

// StoreConfig selects the key-value gateway.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"` // SQLite file, or ":memory:"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// BookConfig holds defaults for new word books.
type BookConfig struct {
	DefaultName string `koanf:"default_name" validate:"required"`
	IDScheme    string `koanf:"id_scheme"    validate:"oneof=uuid positional"`
	IgnoreCase  bool   `koanf:"ignore_case"`
}

// IDFunc returns the id generator named by IDScheme.
func (b BookConfig) IDFunc() repository.IDFunc {
	if b.IDScheme == "positional" {
		return repository.Positional
	}
	return repository.UUIDs
}

// ImportConfig holds word-list import settings.
type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store:       StoreConfig{Path: "wordbook.db"},
		Log:         LogConfig{Level: "info", Format: "text"},
		Book:        BookConfig{DefaultName: "default", IDScheme: "uuid"},
		Proficiency: *proficiency.DefaultParams(),
		Import:      ImportConfig{ReposDir: "repos"},
	}
}
