// Package library ties the word books, part-of-speech vocabulary and
// settings to a key-value gateway. Every mutation runs in memory first and
// is then written back as a whole.
package library

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/proficiency"
	"github.com/conorfennell/wordbook/internal/repository"
	"github.com/conorfennell/wordbook/internal/typejson"
)

// Gateway keys.
const (
	KeyVersion   = "version"
	KeyWords     = "words"
	KeyFreeSlots = "free_slots"
	KeyPOS       = "POS"
	KeySettings  = "setting"
)

// Version is written under KeyVersion.
const Version = "v1.0"

// DefaultBookName names the book created on first start.
const DefaultBookName = "default"

// DefaultPartsOfSpeech is the vocabulary used on first start.
var DefaultPartsOfSpeech = []string{
	domain.DefaultPartOfSpeech,
	"n", "v", "adj", "adv", "pron", "num", "art", "int", "prep", "conj", "aux",
}

// Gateway is the key-value store state is persisted to.
type Gateway interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
}

// batchGateway is implemented by gateways that can write several keys at once.
type batchGateway interface {
	SetAll(entries map[string]string) error
}

// WordBook is the persisted form of one repository. Nil entries are
// tombstones.
type WordBook struct {
	Name  string         `typejson:"name"`
	Words []*domain.Word `typejson:"words"`
}

// NewRegistry returns a type registry with every persisted type.
func NewRegistry() *typejson.Registry {
	reg := typejson.NewRegistry()
	typejson.MustRegister[WordBook](reg, "WordBook")
	typejson.MustRegister[domain.Word](reg, "Word")
	typejson.MustRegister[domain.WordMeaningSet](reg, "WordMeaningSet")
	typejson.MustRegister[domain.WordMeaning](reg, "WordMeaning")
	typejson.MustRegister[domain.SynForm](reg, "SynForm")
	if err := typejson.RegisterFunc(reg, "Setting", func() *domain.Settings {
		s := domain.DefaultSettings(DefaultBookName)
		return &s
	}); err != nil {
		panic(err)
	}
	return reg
}

type Option func(*Library)

func WithLogger(l *slog.Logger) Option {
	return func(lib *Library) { lib.log = l }
}

func WithClock(c clock.Clock) Option {
	return func(lib *Library) { lib.clock = c }
}

// WithScorer sets the scorer used for review order. Defaults to
// proficiency.DefaultParams.
func WithScorer(s domain.Scorer) Option {
	return func(lib *Library) { lib.scorer = s }
}

// WithDefaultBook names the book created when none exists.
func WithDefaultBook(name string) Option {
	return func(lib *Library) { lib.defaultBook = name }
}

// WithDefaultIgnoreCase sets the case policy used until settings are saved.
func WithDefaultIgnoreCase(ignore bool) Option {
	return func(lib *Library) { lib.defaultIgnoreCase = ignore }
}

func WithIDFunc(fn repository.IDFunc) Option {
	return func(lib *Library) { lib.newID = fn }
}

// WithUnknownTagHook is called for every unregistered type tag met while
// loading.
func WithUnknownTagHook(fn func(tag string)) Option {
	return func(lib *Library) { lib.onUnknown = fn }
}

// Library is the application state. It is not safe for concurrent use.
type Library struct {
	gw    Gateway
	codec *typejson.Codec

	books    []*repository.Repository
	pos      []string
	settings domain.Settings

	scorer      domain.Scorer
	clock       clock.Clock
	log         *slog.Logger
	defaultBook string
	newID       repository.IDFunc
	onUnknown   func(tag string)

	defaultIgnoreCase bool
}

// Open loads the library from gw. Keys that are missing, unreadable or
// corrupt fall back to their defaults; the failure is logged. Only a failed
// write of the version key is returned.
func Open(gw Gateway, opts ...Option) (*Library, error) {
	lib := &Library{
		gw:          gw,
		scorer:      proficiency.DefaultParams(),
		clock:       clock.System{},
		log:         slog.Default(),
		defaultBook: DefaultBookName,
		newID:       repository.UUIDs,
	}
	for _, opt := range opts {
		opt(lib)
	}
	codecOpts := []typejson.Option{typejson.WithLogger(lib.log)}
	if lib.onUnknown != nil {
		codecOpts = append(codecOpts, typejson.WithUnknownTagHook(lib.onUnknown))
	}
	lib.codec = typejson.New(NewRegistry(), codecOpts...)

	lib.load()

	if err := lib.writeVersion(); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Library) writeVersion() error {
	stored, ok, err := l.gw.Get(KeyVersion)
	if err == nil && ok && stored == l.mustEncode(Version) {
		return nil
	}
	if err := l.gw.Set(KeyVersion, l.mustEncode(Version)); err != nil {
		return fmt.Errorf("write %s: %w", KeyVersion, err)
	}
	return nil
}

func (l *Library) mustEncode(v any) string {
	text, err := l.codec.Encode(v)
	if err != nil {
		panic(err)
	}
	return text
}

func (l *Library) defaultSettings() domain.Settings {
	s := domain.DefaultSettings(l.defaultBook)
	s.IgnoreCase = l.defaultIgnoreCase
	return s
}

func (l *Library) load() {
	settings := l.defaultSettings()
	if s, ok := loadKey[*domain.Settings](l, KeySettings); ok && s != nil {
		if err := domain.Validate(s); err != nil {
			l.log.Error("invalid stored settings, using defaults", "error", err)
		} else {
			settings = *s
		}
	}
	l.settings = settings

	l.pos = slices.Clone(DefaultPartsOfSpeech)
	if pos, ok := loadKey[[]string](l, KeyPOS); ok {
		l.pos = pos
	}

	books, _ := loadKey[[]*WordBook](l, KeyWords)
	if err := checkBooks(books); err != nil {
		l.log.Error("decode failed, using defaults", "key", KeyWords, "error", err)
		books = nil
	}
	free, _ := loadKey[map[string][]int](l, KeyFreeSlots)
	l.books = l.books[:0]
	for _, wb := range books {
		if wb == nil || wb.Name == "" {
			l.log.Warn("skipping unnamed word book")
			continue
		}
		if _, dup := l.book(wb.Name); dup {
			l.log.Warn("skipping duplicate word book", "book", wb.Name)
			continue
		}
		l.books = append(l.books, repository.Restore(wb.Name, wb.Words, free[wb.Name], l.repoOptions()...))
	}
	l.ensureBook(l.settings.ActiveBookName)

	l.log.Info("library loaded",
		"books", len(l.books),
		"active", l.settings.ActiveBookName,
		"words", l.Active().Len(),
	)
}

func loadKey[T any](l *Library, key string) (T, bool) {
	var zero T
	text, ok, err := l.gw.Get(key)
	if err != nil {
		l.log.Error("read failed, using defaults", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := typejson.Decode[T](l.codec, text)
	if err != nil {
		l.log.Error("decode failed, using defaults", "key", key, "error", err)
		return zero, false
	}
	return v, true
}

// checkBooks rejects live words holding nil meaning sets, nil meanings or
// meanings without text.
func checkBooks(books []*WordBook) error {
	for _, wb := range books {
		if wb == nil {
			continue
		}
		for pos, w := range wb.Words {
			if w == nil {
				continue
			}
			if err := domain.Validate(w); err != nil {
				return fmt.Errorf("%w: book %q slot %d: %w", typejson.ErrMalformedState, wb.Name, pos, err)
			}
		}
	}
	return nil
}

func (l *Library) repoOptions() []repository.Option {
	return []repository.Option{
		repository.WithIgnoreCase(l.settings.IgnoreCase),
		repository.WithIDFunc(l.newID),
		repository.WithClock(l.clock),
		repository.WithLogger(l.log),
	}
}

func (l *Library) book(name string) (*repository.Repository, bool) {
	for _, b := range l.books {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

func (l *Library) ensureBook(name string) *repository.Repository {
	if b, ok := l.book(name); ok {
		return b
	}
	b := repository.New(name, l.repoOptions()...)
	l.books = append(l.books, b)
	return b
}

// snapshot encodes the whole state. Nothing is written when it fails.
func (l *Library) snapshot() (map[string]string, error) {
	books := make([]*WordBook, 0, len(l.books))
	free := make(map[string][]int, len(l.books))
	for _, b := range l.books {
		books = append(books, &WordBook{Name: b.Name(), Words: b.Slots()})
		free[b.Name()] = b.FreeSlots()
	}
	settings := l.settings

	values := map[string]any{
		KeyVersion:   Version,
		KeyWords:     books,
		KeyFreeSlots: free,
		KeyPOS:       l.pos,
		KeySettings:  &settings,
	}
	out := make(map[string]string, len(values))
	for key, v := range values {
		text, err := l.codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = text
	}
	return out, nil
}

func (l *Library) persist() error {
	values, err := l.snapshot()
	if err != nil {
		return err
	}
	if bg, ok := l.gw.(batchGateway); ok {
		if err := bg.SetAll(values); err != nil {
			return fmt.Errorf("persist library: %w", err)
		}
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if err := l.gw.Set(key, values[key]); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

// Codec returns the codec used for persisted values.
func (l *Library) Codec() *typejson.Codec { return l.codec }
