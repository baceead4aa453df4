package domain

import (
	"math"
	"time"
)

// LastReview describes the most recent review in one direction.
type LastReview struct {
	When     time.Time
	Correct  bool
	Reviewed bool
}

// Record returns the review record for the direction.
func (m *WordMeaning) Record(dir Direction) *ReviewRecord {
	if dir == ByMeaning {
		return &m.ByMeaning
	}
	return &m.ByWord
}

// Review records one recall attempt at now.
func (m *WordMeaning) Review(correct bool, dir Direction, now time.Time) {
	rec := m.Record(dir)
	at := now
	if correct {
		rec.LastCorrect = &at
		rec.RightCount++
	} else {
		rec.LastWrong = &at
		rec.WrongCount++
	}
}

// LastReview reports whichever of the last correct and last wrong answers is
// more recent. Equal timestamps count as wrong.
func (m *WordMeaning) LastReview(dir Direction) LastReview {
	rec := m.Record(dir)
	switch {
	case rec.LastCorrect == nil && rec.LastWrong == nil:
		return LastReview{}
	case rec.LastWrong == nil:
		return LastReview{When: *rec.LastCorrect, Correct: true, Reviewed: true}
	case rec.LastCorrect == nil || !rec.LastCorrect.After(*rec.LastWrong):
		return LastReview{When: *rec.LastWrong, Reviewed: true}
	default:
		return LastReview{When: *rec.LastCorrect, Correct: true, Reviewed: true}
	}
}

// Score is the weaker of the two recall directions.
func (m *WordMeaning) Score(s Scorer, now time.Time) float64 {
	return math.Min(s.Score(m.ByWord, now), s.Score(m.ByMeaning, now))
}
