package library

import (
	"fmt"
	"slices"
	"strings"

	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/repository"
	"github.com/conorfennell/wordbook/internal/typejson"
)

// Active returns the book named by the settings.
func (l *Library) Active() *repository.Repository {
	return l.ensureBook(l.settings.ActiveBookName)
}

// Book returns the book with the given name.
func (l *Library) Book(name string) (*repository.Repository, bool) {
	return l.book(name)
}

// Books returns the book names in creation order.
func (l *Library) Books() []string {
	names := make([]string, 0, len(l.books))
	for _, b := range l.books {
		names = append(names, b.Name())
	}
	return names
}

// Settings returns a copy of the current settings.
func (l *Library) Settings() domain.Settings { return l.settings }

// PartsOfSpeech returns the part-of-speech vocabulary.
func (l *Library) PartsOfSpeech() []string { return slices.Clone(l.pos) }

// change runs fn and persists the state when it succeeds.
func (l *Library) change(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	return l.persist()
}

// UseBook makes name the active book, creating it when missing.
func (l *Library) UseBook(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("book", "name is required")
	}
	return l.change(func() error {
		l.ensureBook(name)
		l.settings.ActiveBookName = name
		return nil
	})
}

// AddWord adds or merges a word into the active book.
func (l *Library) AddWord(seed repository.Seed, mode repository.Mode) error {
	return l.change(func() error {
		return l.Active().AddWord(seed, mode)
	})
}

// RemoveByID removes a word from the active book. Nothing is written when
// no word matched.
func (l *Library) RemoveByID(id string) (int, error) {
	n := l.Active().RemoveByID(id)
	if n == 0 {
		return 0, nil
	}
	return n, l.persist()
}

// RemoveByText removes every word with the given text from the active book.
func (l *Library) RemoveByText(text string) (int, error) {
	n := l.Active().RemoveByText(text)
	if n == 0 {
		return 0, nil
	}
	return n, l.persist()
}

// Review records one answer for a meaning of a word in the active book.
func (l *Library) Review(id string, setIdx, meaningIdx int, dir domain.Direction, correct bool) error {
	return l.change(func() error {
		w, ok := l.Active().WordByID(id)
		if !ok {
			return fmt.Errorf("review word %s: %w", id, domain.ErrNotFound)
		}
		m, ok := w.Meaning(setIdx, meaningIdx)
		if !ok {
			return fmt.Errorf("review word %s meaning %d/%d: %w", id, setIdx, meaningIdx, domain.ErrNotFound)
		}
		m.Review(correct, dir, l.clock.Now())
		l.log.Debug("reviewed",
			"word", w.Text,
			"meaning", m.Text,
			"direction", dir.String(),
			"correct", correct,
		)
		return nil
	})
}

// Mutate runs fn against the active book and persists afterwards. When fn
// fails the book is rolled back to a copy taken beforehand and nothing is
// written. Words handed out before the rollback are detached from the book.
func (l *Library) Mutate(fn func(*repository.Repository) error) error {
	active := l.Active()
	slots, err := typejson.Copy(l.codec, active.Slots())
	if err != nil {
		return fmt.Errorf("mutate %s: %w", active.Name(), err)
	}
	free := active.FreeSlots()

	return l.change(func() error {
		if err := fn(active); err != nil {
			l.replaceBook(repository.Restore(active.Name(), slots, free, l.repoOptions()...))
			return err
		}
		return nil
	})
}

func (l *Library) replaceBook(b *repository.Repository) {
	for i, old := range l.books {
		if old.Name() == b.Name() {
			l.books[i] = b
			return
		}
	}
	l.books = append(l.books, b)
}

// UpdateSettings applies fn to a copy of the settings. The copy replaces
// the current settings only if it validates.
func (l *Library) UpdateSettings(fn func(*domain.Settings)) error {
	next := l.settings
	fn(&next)
	if err := domain.Validate(&next); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return l.change(func() error {
		l.settings = next
		for _, b := range l.books {
			b.SetIgnoreCase(next.IgnoreCase)
		}
		l.ensureBook(next.ActiveBookName)
		return nil
	})
}

// AddPartOfSpeech extends the vocabulary. Known tags are a no-op.
func (l *Library) AddPartOfSpeech(pos string) error {
	pos = strings.TrimSpace(pos)
	if pos == "" {
		return domain.NewValidationError("pos", "tag is required")
	}
	if slices.Contains(l.pos, pos) {
		return nil
	}
	return l.change(func() error {
		l.pos = append(l.pos, pos)
		return nil
	})
}

// Reset clears the gateway and starts over with defaults.
func (l *Library) Reset() error {
	if err := l.gw.Clear(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	l.books = nil
	l.pos = slices.Clone(DefaultPartsOfSpeech)
	l.settings = l.defaultSettings()
	l.ensureBook(l.settings.ActiveBookName)
	l.log.Info("library reset")
	return l.persist()
}
