package proficiency

import (
	"math"
	"testing"
	"time"

	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := now.Add(-time.Duration(d * float64(day)))
	return &t
}

func TestScoreFreshRecord(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{FirstLearned: now}

	assert.Equal(t, 1.0, params.Score(r, now))
}

func TestScoreDecay(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{FirstLearned: *daysAgo(14)}

	// 1 * e^-1
	assert.InDelta(t, 0.368, params.Score(r, now), 1e-9)
}

func TestScoreUsesLastCorrectAsReference(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{
		FirstLearned: *daysAgo(100),
		LastCorrect:  daysAgo(0),
		RightCount:   1,
	}

	// base 6, no decay, no mistake
	assert.Equal(t, 6.0, params.Score(r, now))
}

func TestScoreBaseFloor(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{FirstLearned: now, WrongCount: 10}

	assert.Equal(t, 0.05, params.Score(r, now))
}

func TestScoreUncorrectedMistake(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{
		FirstLearned: *daysAgo(10),
		LastCorrect:  daysAgo(2),
		LastWrong:    daysAgo(0),
		RightCount:   2,
		WrongCount:   1,
	}

	base := 1 + 5*2 - 1.0
	want := base * math.Exp(-2.0/14) * (1 - 0.85)
	assert.InDelta(t, math.Round(want*1000)/1000, params.Score(r, now), 1e-9)
}

func TestScoreCorrectedMistake(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{
		FirstLearned: *daysAgo(10),
		LastCorrect:  daysAgo(1),
		LastWrong:    daysAgo(3),
		RightCount:   3,
		WrongCount:   1,
	}

	base := 1 + 5*3 - 1.0
	boost := math.Min(0.45, 0.25*math.Exp(-1.0/14)+0.05*math.Log(4))
	want := base * math.Exp(-1.0/14) * (1 + boost)
	assert.InDelta(t, math.Round(want*1000)/1000, params.Score(r, now), 1e-9)
}

func TestScoreMistakeAtSameInstantIsUncorrected(t *testing.T) {
	params := DefaultParams()
	r := domain.ReviewRecord{
		FirstLearned: *daysAgo(1),
		LastCorrect:  daysAgo(0),
		LastWrong:    daysAgo(0),
		RightCount:   1,
		WrongCount:   1,
	}

	// base 5, penalty 0.85
	assert.InDelta(t, 0.75, params.Score(r, now), 1e-9)
}

func TestScoreMonotonicInRightCount(t *testing.T) {
	params := DefaultParams()
	records := []domain.ReviewRecord{
		{FirstLearned: *daysAgo(30)},
		{FirstLearned: *daysAgo(30), LastCorrect: daysAgo(5)},
		{FirstLearned: *daysAgo(30), LastCorrect: daysAgo(5), LastWrong: daysAgo(9), WrongCount: 4},
		{FirstLearned: *daysAgo(30), LastCorrect: daysAgo(5), LastWrong: daysAgo(1), WrongCount: 2},
	}

	for i, r := range records {
		prev := params.Score(r, now)
		for n := uint(1); n <= 20; n++ {
			r.RightCount = n
			score := params.Score(r, now)
			assert.GreaterOrEqual(t, score, prev, "record %d, right=%d", i, n)
			prev = score
		}
	}
}

func TestScoreRecentWrongLowersScore(t *testing.T) {
	params := DefaultParams()
	without := domain.ReviewRecord{
		FirstLearned: *daysAgo(20),
		LastCorrect:  daysAgo(4),
		RightCount:   3,
	}
	with := without
	with.LastWrong = daysAgo(0)
	with.WrongCount = 1

	assert.Less(t, params.Score(with, now), params.Score(without, now))
}

func TestScoreFutureTimestampsDoNotInflate(t *testing.T) {
	params := DefaultParams()
	future := now.Add(48 * time.Hour)
	r := domain.ReviewRecord{FirstLearned: future}

	assert.Equal(t, 1.0, params.Score(r, now))
}

func TestScoreNeverNegative(t *testing.T) {
	params := DefaultParams()
	params.MaxPenalty = 1
	r := domain.ReviewRecord{FirstLearned: now, LastWrong: &now, WrongCount: 1}

	assert.Equal(t, 0.0, params.Score(r, now))
}

func TestWordMeaningTakesWeakerDirection(t *testing.T) {
	params := DefaultParams()
	m := domain.NewMeaning("to move fast", *daysAgo(3))
	m.Review(true, domain.ByWord, now)

	assert.Equal(t, params.Score(m.ByMeaning, now), m.Score(params, now))
}
