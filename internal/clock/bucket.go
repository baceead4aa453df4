package clock

import "time"

// Recency groups a past instant by how many calendar days ago it was.
type Recency int

const (
	Today Recency = iota
	Yesterday
	ThreeDays
	ThisWeek
	ThisMonth
	Oldest
)

var recencyNames = [...]string{"today", "yesterday", "within 3 days", "this week", "this month", "older"}

func (r Recency) String() string {
	if r < Today || r > Oldest {
		return "unknown"
	}
	return recencyNames[r]
}

// Bucket compares the calendar dates of now and t in now's location.
// Instants in the future of now count as Today.
func Bucket(now, t time.Time) Recency {
	loc := now.Location()
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	// Round instead of truncating so DST transitions don't shift a day.
	diff := int(nowDay.Sub(day).Round(24*time.Hour) / (24 * time.Hour))

	switch {
	case diff <= 0:
		return Today
	case diff == 1:
		return Yesterday
	case diff <= 3:
		return ThreeDays
	case diff <= 7:
		return ThisWeek
	case diff <= 30:
		return ThisMonth
	default:
		return Oldest
	}
}
