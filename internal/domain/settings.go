package domain

// SortBy selects how word lists are ordered.
type SortBy int

const (
	SortByPriority   SortBy = iota // weakest proficiency first
	SortByDictionary               // lexicographic by text
	SortByCreateTime               // oldest first
)

// SortOrder is a sort mode plus direction.
type SortOrder struct {
	By      SortBy `typejson:"sortBy" validate:"gte=0,lte=2"`
	Reverse bool   `typejson:"isRev"`
}

// ReviewContent selects which recall directions are quizzed.
type ReviewContent struct {
	ByWord    bool `typejson:"byWord"`
	ByMeaning bool `typejson:"byMeaning"`
}

// Directions lists the enabled directions in a fixed order.
func (r ReviewContent) Directions() []Direction {
	var dirs []Direction
	if r.ByWord {
		dirs = append(dirs, ByWord)
	}
	if r.ByMeaning {
		dirs = append(dirs, ByMeaning)
	}
	return dirs
}

// Settings are the user preferences persisted next to the word books.
type Settings struct {
	IgnoreCase     bool          `typejson:"ignoreCase"`
	ReviewContent  ReviewContent `typejson:"reviewContent"`
	ActiveBookName string        `typejson:"nowWordBookName" validate:"required"`
	Sort           SortOrder     `typejson:"sort"`
}

// DefaultSettings returns the settings used on first start.
func DefaultSettings(bookName string) Settings {
	return Settings{
		ReviewContent:  ReviewContent{ByWord: true, ByMeaning: true},
		ActiveBookName: bookName,
		Sort:           SortOrder{By: SortByCreateTime},
	}
}
