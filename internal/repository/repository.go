// Package repository holds the words of one word book in position-indexed
// storage. Removed words leave a tombstone whose slot is recycled by the
// next insertion, oldest first.
package repository

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/lexkey"
)

// Mode controls how AddWord merges into a word that already exists.
type Mode int

const (
	// Append only adds meanings and synonym forms.
	Append Mode = iota
	// Truncate clears meanings and synonym forms before applying the seed.
	Truncate
)

func (m Mode) String() string {
	if m == Truncate {
		return "truncate"
	}
	return "append"
}

// Seed is the data AddWord builds or merges a word from.
type Seed struct {
	Text     string                   `validate:"required"`
	Meanings []*domain.WordMeaningSet `validate:"dive,required"`
	SynForms []domain.SynForm         `validate:"dive"`
	Note     string
}

// IDFunc returns the id for a word inserted at position.
type IDFunc func(position int) string

// UUIDs assigns time-ordered random ids.
func UUIDs(int) string {
	return uuid.Must(uuid.NewV7()).String()
}

// Positional uses the slot index as the id.
func Positional(position int) string {
	return strconv.Itoa(position)
}

// Option configures a Repository.
type Option func(*Repository)

func WithIgnoreCase(ignore bool) Option {
	return func(r *Repository) { r.policy.IgnoreCase = ignore }
}

func WithIDFunc(fn IDFunc) Option {
	return func(r *Repository) { r.newID = fn }
}

func WithClock(c clock.Clock) Option {
	return func(r *Repository) { r.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// Repository owns the words of one book. It is not safe for concurrent use.
type Repository struct {
	name   string
	slots  []*domain.Word
	free   []int
	index  map[string]int
	policy lexkey.Policy
	newID  IDFunc
	clock  clock.Clock
	log    *slog.Logger
}

// New returns an empty repository.
func New(name string, opts ...Option) *Repository {
	r := &Repository{
		name:  name,
		index: make(map[string]int),
		newID: UUIDs,
		clock: clock.System{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore rebuilds a repository from persisted slots, where nil marks a
// tombstone. A free list that disagrees with the tombstones is repaired:
// stale and duplicate entries are dropped, missing tombstones are appended
// in position order. Live words with an empty or duplicate id get a new one,
// and their meanings are merged so no part of speech or meaning text repeats.
func Restore(name string, slots []*domain.Word, free []int, opts ...Option) *Repository {
	r := New(name, opts...)
	r.slots = slices.Clone(slots)

	for pos, w := range r.slots {
		if w == nil {
			continue
		}
		if _, dup := r.index[w.ID]; w.ID == "" || dup {
			old := w.ID
			w.ID = r.uniqueID(pos)
			r.log.Warn("reassigned word id", "book", name, "position", pos, "old_id", old, "new_id", w.ID)
		}
		r.index[w.ID] = pos
		if normalize(w) {
			r.log.Warn("merged word meanings", "book", name, "id", w.ID, "text", w.Text)
		}
	}

	queued := make(map[int]bool, len(free))
	for _, pos := range free {
		if pos < 0 || pos >= len(r.slots) || r.slots[pos] != nil || queued[pos] {
			continue
		}
		queued[pos] = true
		r.free = append(r.free, pos)
	}
	for pos, w := range r.slots {
		if w == nil && !queued[pos] {
			r.free = append(r.free, pos)
		}
	}
	if !slices.Equal(r.free, free) {
		r.log.Warn("repaired free slot list", "book", name, "stored", free, "repaired", r.free)
	}
	return r
}

// normalize merges the meaning sets of w and reports whether anything changed.
func normalize(w *domain.Word) bool {
	sets, meanings := len(w.MeaningSets), 0
	for _, set := range w.MeaningSets {
		if set != nil {
			meanings += len(set.Meanings)
		}
	}
	w.MergeMeanings()
	return len(w.MeaningSets) != sets || w.MeaningCount() != meanings
}

func (r *Repository) Name() string { return r.name }

// IgnoreCase reports whether text comparisons fold case.
func (r *Repository) IgnoreCase() bool { return r.policy.IgnoreCase }

// SetIgnoreCase switches the text comparison policy for later lookups.
func (r *Repository) SetIgnoreCase(ignore bool) { r.policy.IgnoreCase = ignore }

// AddWord merges seed into the live word with the same text, or inserts a
// new word into the oldest free slot, appending when there is none. Under
// Append the existing note is only replaced by a non-empty seed note.
func (r *Repository) AddWord(seed Seed, mode Mode) error {
	if err := domain.Validate(&seed); err != nil {
		return fmt.Errorf("add word %q: %w", seed.Text, err)
	}

	if w := r.first(seed.Text); w != nil {
		if mode == Truncate {
			w.ClearMeanings()
			w.SynForms = nil
		}
		apply(w, seed, mode)
		return nil
	}

	pos := len(r.slots)
	if len(r.free) > 0 {
		pos = r.free[0]
	}
	w := domain.NewWord(r.uniqueID(pos), seed.Text, r.clock.Now())
	apply(w, seed, Truncate)

	if pos == len(r.slots) {
		r.slots = append(r.slots, w)
	} else {
		r.free = r.free[1:]
		r.slots[pos] = w
	}
	r.index[w.ID] = pos
	return nil
}

func apply(w *domain.Word, seed Seed, mode Mode) {
	for _, set := range seed.Meanings {
		if len(set.Meanings) == 0 {
			continue
		}
		w.AddMeaningSet(set)
	}
	for _, f := range seed.SynForms {
		w.AddSynForm(f.Form, f.Source)
	}
	if mode == Truncate || seed.Note != "" {
		w.Note = seed.Note
	}
}

func (r *Repository) uniqueID(pos int) string {
	id := r.newID(pos)
	for n := 1; ; n++ {
		if _, taken := r.index[id]; !taken && id != "" {
			return id
		}
		id = r.newID(pos) + "-" + strconv.Itoa(n)
	}
}

func (r *Repository) first(text string) *domain.Word {
	for _, w := range r.All() {
		if r.policy.Equal(w.Text, text) {
			return w
		}
	}
	return nil
}

// WordsByText returns every live word whose text equals text under the
// case policy.
func (r *Repository) WordsByText(text string) []*domain.Word {
	var out []*domain.Word
	for _, w := range r.All() {
		if r.policy.Equal(w.Text, text) {
			out = append(out, w)
		}
	}
	return out
}

// WordByID returns the live word with the given id.
func (r *Repository) WordByID(id string) (*domain.Word, bool) {
	pos, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.slots[pos], true
}

// PositionOf returns the slot holding the live word with the given id.
func (r *Repository) PositionOf(id string) (int, bool) {
	pos, ok := r.index[id]
	return pos, ok
}

// WordAt returns the live word at pos. Tombstones and out-of-range
// positions report false.
func (r *Repository) WordAt(pos int) (*domain.Word, bool) {
	if pos < 0 || pos >= len(r.slots) || r.slots[pos] == nil {
		return nil, false
	}
	return r.slots[pos], true
}

// RemoveByID tombstones the word with the given id and returns how many
// words were removed.
func (r *Repository) RemoveByID(id string) int {
	pos, ok := r.index[id]
	if !ok {
		return 0
	}
	r.tombstone(pos)
	return 1
}

// RemoveByText tombstones every word whose text matches.
func (r *Repository) RemoveByText(text string) int {
	n := 0
	for pos, w := range r.All() {
		if r.policy.Equal(w.Text, text) {
			r.tombstone(pos)
			n++
		}
	}
	return n
}

// Remove tombstones w if this repository holds it.
func (r *Repository) Remove(w *domain.Word) int {
	for pos, live := range r.All() {
		if live == w {
			r.tombstone(pos)
			return 1
		}
	}
	return 0
}

func (r *Repository) tombstone(pos int) {
	delete(r.index, r.slots[pos].ID)
	r.slots[pos] = nil
	r.free = append(r.free, pos)
}

// All yields live words with their positions. The repository must not be
// modified while the sequence is being consumed.
func (r *Repository) All() iter.Seq2[int, *domain.Word] {
	return func(yield func(int, *domain.Word) bool) {
		for pos, w := range r.slots {
			if w == nil {
				continue
			}
			if !yield(pos, w) {
				return
			}
		}
	}
}

// AvailableWords returns the live words in position order.
func (r *Repository) AvailableWords() []*domain.Word {
	out := make([]*domain.Word, 0, len(r.index))
	for _, w := range r.All() {
		out = append(out, w)
	}
	return out
}

// Len returns the number of live words.
func (r *Repository) Len() int { return len(r.index) }

// FreeSlots returns the tombstoned positions, oldest first.
func (r *Repository) FreeSlots() []int { return slices.Clone(r.free) }

// Slots returns the raw storage including tombstones.
func (r *Repository) Slots() []*domain.Word { return slices.Clone(r.slots) }

// Search returns live words whose text or a synonym form contains query.
func (r *Repository) Search(query string) []*domain.Word {
	var out []*domain.Word
	for _, w := range r.All() {
		if r.matches(w, query) {
			out = append(out, w)
		}
	}
	return out
}

func (r *Repository) matches(w *domain.Word, query string) bool {
	if r.policy.Contains(w.Text, query) {
		return true
	}
	for _, f := range w.SynForms {
		if r.policy.Contains(f.Form, query) {
			return true
		}
	}
	return false
}

// Sorted returns the live words ordered by order. Priority puts the
// weakest words first and words without meanings last.
func (r *Repository) Sorted(order domain.SortOrder, s domain.Scorer, now time.Time) []*domain.Word {
	words := r.AvailableWords()

	switch order.By {
	case domain.SortByPriority:
		type scored struct {
			w     *domain.Word
			score float64
			ok    bool
		}
		all := make([]scored, len(words))
		for i, w := range words {
			p, err := w.CalculateProficiency(s, now)
			all[i] = scored{w: w, score: p.Score, ok: err == nil}
		}
		slices.SortStableFunc(all, func(a, b scored) int {
			if a.ok != b.ok {
				if a.ok {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.score, b.score)
		})
		for i := range all {
			words[i] = all[i].w
		}
	case domain.SortByDictionary:
		slices.SortStableFunc(words, func(a, b *domain.Word) int {
			return cmp.Or(
				cmp.Compare(r.policy.Key(a.Text), r.policy.Key(b.Text)),
				cmp.Compare(a.Text, b.Text),
			)
		})
	default:
		slices.SortStableFunc(words, func(a, b *domain.Word) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}

	if order.Reverse {
		slices.Reverse(words)
	}
	return words
}
