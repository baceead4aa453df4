package domain

import (
	"fmt"
	"time"
)

// Scorer computes the recall strength of one review record.
type Scorer interface {
	Score(record ReviewRecord, now time.Time) float64
}

// Proficiency is the weakest meaning of a word and where it lives.
type Proficiency struct {
	Score        float64
	SetIndex     int
	MeaningIndex int
}

// AddMeaning appends meanings to the set tagged pos, creating the set when
// the word has none. The set is deduplicated by meaning text afterwards,
// keeping the first occurrence. Without meanings no set is created and the
// result is nil unless the word already has one for pos.
func (w *Word) AddMeaning(pos string, meanings ...*WordMeaning) *WordMeaningSet {
	if pos == "" {
		pos = DefaultPartOfSpeech
	}
	for _, set := range w.MeaningSets {
		if set.PartOfSpeech == pos {
			set.Meanings = dedupMeanings(append(set.Meanings, meanings...))
			return set
		}
	}
	meanings = dedupMeanings(append([]*WordMeaning(nil), meanings...))
	if len(meanings) == 0 {
		return nil
	}
	set := &WordMeaningSet{
		PartOfSpeech: pos,
		Meanings:     meanings,
	}
	w.MeaningSets = append(w.MeaningSets, set)
	return set
}

// AddMeaningSet is AddMeaning with the set unpacked.
func (w *Word) AddMeaningSet(set *WordMeaningSet) *WordMeaningSet {
	return w.AddMeaning(set.PartOfSpeech, set.Meanings...)
}

// RemoveMeaning removes the meaning with the given text from the set tagged
// pos. It reports whether anything was removed.
func (w *Word) RemoveMeaning(pos, text string) bool {
	for si, set := range w.MeaningSets {
		if set.PartOfSpeech != pos {
			continue
		}
		for mi, m := range set.Meanings {
			if m.Text == text {
				return w.RemoveMeaningAt(si, mi)
			}
		}
	}
	return false
}

// RemoveMeaningAt removes a meaning by position. A set left empty is removed
// with it. Out of range positions are ignored.
func (w *Word) RemoveMeaningAt(setIdx, meaningIdx int) bool {
	if setIdx < 0 || setIdx >= len(w.MeaningSets) {
		return false
	}
	set := w.MeaningSets[setIdx]
	if meaningIdx < 0 || meaningIdx >= len(set.Meanings) {
		return false
	}
	set.Meanings = append(set.Meanings[:meaningIdx], set.Meanings[meaningIdx+1:]...)
	if len(set.Meanings) == 0 {
		w.MeaningSets = append(w.MeaningSets[:setIdx], w.MeaningSets[setIdx+1:]...)
	}
	return true
}

// ClearMeanings drops every meaning set.
func (w *Word) ClearMeanings() {
	w.MeaningSets = nil
}

// MergeMeanings folds sets sharing a part of speech into the first of them
// and deduplicates every set. Nil entries and sets left empty are dropped.
func (w *Word) MergeMeanings() {
	merged := make([]*WordMeaningSet, 0, len(w.MeaningSets))
	byPOS := make(map[string]*WordMeaningSet, len(w.MeaningSets))
	for _, set := range w.MeaningSets {
		if set == nil {
			continue
		}
		if first, ok := byPOS[set.PartOfSpeech]; ok {
			first.Meanings = append(first.Meanings, set.Meanings...)
			continue
		}
		byPOS[set.PartOfSpeech] = set
		merged = append(merged, set)
	}
	kept := merged[:0]
	for _, set := range merged {
		if set.Meanings = dedupMeanings(set.Meanings); len(set.Meanings) > 0 {
			kept = append(kept, set)
		}
	}
	w.MeaningSets = kept
}

// MeaningCount is the number of meanings across all sets.
func (w *Word) MeaningCount() int {
	n := 0
	for _, set := range w.MeaningSets {
		n += len(set.Meanings)
	}
	return n
}

// Meaning returns the meaning at the given position.
func (w *Word) Meaning(setIdx, meaningIdx int) (*WordMeaning, bool) {
	if setIdx < 0 || setIdx >= len(w.MeaningSets) {
		return nil, false
	}
	set := w.MeaningSets[setIdx]
	if meaningIdx < 0 || meaningIdx >= len(set.Meanings) {
		return nil, false
	}
	return set.Meanings[meaningIdx], true
}

// AddSynForm appends an alternate form. Forms are not deduplicated.
func (w *Word) AddSynForm(form string, source SourceKind) {
	w.SynForms = append(w.SynForms, SynForm{Form: form, Source: source})
}

// RemoveSynFormAt removes the form at position i. Out of range positions
// report false.
func (w *Word) RemoveSynFormAt(i int) bool {
	if i < 0 || i >= len(w.SynForms) {
		return false
	}
	w.SynForms = append(w.SynForms[:i], w.SynForms[i+1:]...)
	return true
}

// CalculateProficiency returns the lowest meaning score of the word.
// Ties keep the first meaning in set order.
func (w *Word) CalculateProficiency(s Scorer, now time.Time) (Proficiency, error) {
	best := Proficiency{SetIndex: -1, MeaningIndex: -1}
	for si, set := range w.MeaningSets {
		for mi, m := range set.Meanings {
			score := m.Score(s, now)
			if best.SetIndex == -1 || score < best.Score {
				best = Proficiency{Score: score, SetIndex: si, MeaningIndex: mi}
			}
		}
	}
	if best.SetIndex == -1 {
		return Proficiency{}, fmt.Errorf("calculate proficiency of %q: %w", w.Text, ErrEmptyMeaning)
	}
	return best, nil
}

func dedupMeanings(meanings []*WordMeaning) []*WordMeaning {
	seen := make(map[string]struct{}, len(meanings))
	out := meanings[:0]
	for _, m := range meanings {
		if m == nil {
			continue
		}
		if _, dup := seen[m.Text]; dup {
			continue
		}
		seen[m.Text] = struct{}{}
		out = append(out, m)
	}
	return out
}
