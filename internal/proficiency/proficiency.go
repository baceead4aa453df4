package proficiency

import (
	"math"
	"time"

	"github.com/conorfennell/wordbook/internal/domain"
)

const day = 24 * time.Hour

// Params holds the tunable constants of the recall strength model.
type Params struct {
	RightWeight      float64 `koanf:"right_weight"       validate:"gte=0"`  // gain per correct review
	WrongWeight      float64 `koanf:"wrong_weight"       validate:"gte=0"`  // loss per wrong review
	BaseFloor        float64 `koanf:"base_floor"         validate:"gt=0"`   // lowest base strength
	MemoryLambdaDays float64 `koanf:"memory_lambda_days" validate:"gt=0"`   // forgetting time constant
	WrongTauDays     float64 `koanf:"wrong_tau_days"     validate:"gt=0"`   // decay of the uncorrected-mistake penalty
	MaxPenalty       float64 `koanf:"max_penalty"        validate:"gte=0,lte=1"`
	MaxBoost         float64 `koanf:"max_boost"          validate:"gte=0"`
	BoostRecency     float64 `koanf:"boost_recency"      validate:"gte=0"` // weight of a recent correction
	BoostPractice    float64 `koanf:"boost_practice"     validate:"gte=0"` // weight of ln(1+right)
}

// DefaultParams provides the constants the scores were calibrated with.
func DefaultParams() *Params {
	return &Params{
		RightWeight:      5,
		WrongWeight:      1,
		BaseFloor:        0.05,
		MemoryLambdaDays: 14,
		WrongTauDays:     7,
		MaxPenalty:       0.85,
		MaxBoost:         0.45,
		BoostRecency:     0.25,
		BoostPractice:    0.05,
	}
}

// Score returns the recall strength of a record at now: a non-negative
// number rounded to three decimals where larger means better remembered.
func (p *Params) Score(r domain.ReviewRecord, now time.Time) float64 {
	strength := p.base(r) * math.Exp(-daysBetween(p.reference(r), now)/p.MemoryLambdaDays)

	if r.LastWrong != nil && !r.LastWrong.IsZero() {
		if p.uncorrected(r) {
			penalty := math.Min(p.MaxPenalty, p.MaxPenalty*math.Exp(-daysBetween(*r.LastWrong, now)/p.WrongTauDays))
			strength *= math.Max(0, 1-penalty)
		} else {
			strength *= 1 + p.correctionBoost(r, now)
		}
	}

	if math.IsNaN(strength) || math.IsInf(strength, 0) || strength < 0 {
		return 0
	}
	return math.Round(strength*1000) / 1000
}

func (p *Params) base(r domain.ReviewRecord) float64 {
	base := 1 + p.RightWeight*float64(r.RightCount) - p.WrongWeight*float64(r.WrongCount)
	return math.Max(base, p.BaseFloor)
}

// reference is the last correct answer, or the first learning when there is none.
func (p *Params) reference(r domain.ReviewRecord) time.Time {
	if r.LastCorrect != nil && !r.LastCorrect.IsZero() {
		return *r.LastCorrect
	}
	return r.FirstLearned
}

// uncorrected reports whether the last mistake has not been followed by a
// correct answer. A mistake at the same instant as the correct answer counts
// as uncorrected.
func (p *Params) uncorrected(r domain.ReviewRecord) bool {
	if r.LastCorrect == nil || r.LastCorrect.IsZero() {
		return true
	}
	return !r.LastWrong.Before(*r.LastCorrect)
}

func (p *Params) correctionBoost(r domain.ReviewRecord, now time.Time) float64 {
	recency := p.BoostRecency * math.Exp(-daysBetween(*r.LastCorrect, now)/p.MemoryLambdaDays)
	practice := p.BoostPractice * math.Log1p(float64(r.RightCount))
	return math.Min(p.MaxBoost, recency+practice)
}

// daysBetween is the elapsed time in days, clamped at zero.
func daysBetween(from, to time.Time) float64 {
	return math.Max(0, float64(to.Sub(from))/float64(day))
}
