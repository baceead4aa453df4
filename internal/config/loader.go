package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Flags registers the command line overrides on fs with the default values.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "YAML config file (default "+DefaultPath+" when present)")
	fs.String("store.path", d.Store.Path, "SQLite database file")
	fs.String("log.level", d.Log.Level, "log level: debug, info, warn, error")
	fs.String("log.format", d.Log.Format, "log format: text or json")
	fs.String("book.default_name", d.Book.DefaultName, "name of the book created on first start")
	fs.String("book.id_scheme", d.Book.IDScheme, "word id scheme: uuid or positional")
	fs.Bool("book.ignore_case", d.Book.IgnoreCase, "compare word text case-insensitively on first start")
	fs.String("import.repos_dir", d.Import.ReposDir, "directory for git word-list checkouts")
}

// Load builds the configuration.
// Priority: flags > ENV > YAML > defaults.
// The YAML path comes from the --config flag; without it DefaultPath is
// read when it exists. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, explicitPath := DefaultPath, false
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			path, explicitPath = p, true
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, fmt.Errorf("config: read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct rules of every section.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
