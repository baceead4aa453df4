package library

import (
	"cmp"
	"slices"

	"github.com/conorfennell/wordbook/internal/domain"
)

// ReviewItem is one meaning to quiz in one direction.
type ReviewItem struct {
	Word         *domain.Word
	Meaning      *domain.WordMeaning
	SetIndex     int
	MeaningIndex int
	Direction    domain.Direction
	Score        float64
}

// ReviewQueue returns the weakest meanings of the active book over the
// enabled review directions, weakest first. A limit of zero or less
// returns every item.
func (l *Library) ReviewQueue(limit int) []ReviewItem {
	now := l.clock.Now()
	dirs := l.settings.ReviewContent.Directions()

	var items []ReviewItem
	for _, w := range l.Active().All() {
		for si, set := range w.MeaningSets {
			for mi, m := range set.Meanings {
				for _, dir := range dirs {
					items = append(items, ReviewItem{
						Word:         w,
						Meaning:      m,
						SetIndex:     si,
						MeaningIndex: mi,
						Direction:    dir,
						Score:        l.scorer.Score(*m.Record(dir), now),
					})
				}
			}
		}
	}

	slices.SortStableFunc(items, func(a, b ReviewItem) int {
		return cmp.Compare(a.Score, b.Score)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
