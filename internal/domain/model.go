package domain

import "time"

// DefaultPartOfSpeech is used when a meaning is added without a tag.
const DefaultPartOfSpeech = "unknown"

// SourceKind records where a meaning or synonym form came from.
type SourceKind int

const (
	SourceManual           SourceKind = 0
	SourceAIGenerated      SourceKind = 2
	SourceImportedFromBook SourceKind = 3
)

func (s SourceKind) String() string {
	switch s {
	case SourceManual:
		return "manual"
	case SourceAIGenerated:
		return "ai"
	case SourceImportedFromBook:
		return "book"
	default:
		return "unknown"
	}
}

// Direction is the way a meaning is quizzed.
type Direction int

const (
	ByWord    Direction = iota // shown the word, recall the meaning
	ByMeaning                  // shown the meaning, recall the word
)

func (d Direction) String() string {
	if d == ByMeaning {
		return "by-meaning"
	}
	return "by-word"
}

// ReviewRecord is the recall history for one direction of a meaning.
type ReviewRecord struct {
	FirstLearned time.Time  `typejson:"firstLearned"`
	LastCorrect  *time.Time `typejson:"lastCorrect"`
	LastWrong    *time.Time `typejson:"lastWrong"`
	RightCount   uint       `typejson:"rightReviewCount"`
	WrongCount   uint       `typejson:"wrongReviewCount"`
}

// WordMeaning is one sense of a word. Within a set it is identified by Text.
type WordMeaning struct {
	Text      string       `typejson:"text"   validate:"required"`
	Source    SourceKind   `typejson:"source"`
	ByWord    ReviewRecord `typejson:"reviewByWordInfo"`
	ByMeaning ReviewRecord `typejson:"reviewByMeaningInfo"`
}

// NewMeaning creates a manually entered meaning first learned at now.
func NewMeaning(text string, now time.Time) *WordMeaning {
	return &WordMeaning{
		Text:      text,
		Source:    SourceManual,
		ByWord:    ReviewRecord{FirstLearned: now},
		ByMeaning: ReviewRecord{FirstLearned: now},
	}
}

// NewMeaningSet builds a set of meanings with the same source, first
// learned at now.
func NewMeaningSet(pos string, source SourceKind, now time.Time, texts ...string) *WordMeaningSet {
	set := &WordMeaningSet{PartOfSpeech: pos}
	for _, text := range texts {
		m := NewMeaning(text, now)
		m.Source = source
		set.Meanings = append(set.Meanings, m)
	}
	return set
}

// WordMeaningSet groups the meanings that share a part of speech.
type WordMeaningSet struct {
	PartOfSpeech string         `typejson:"POS"`
	Meanings     []*WordMeaning `typejson:"meaning" validate:"dive,required"`
}

// SynForm is an alternate written form of a word.
type SynForm struct {
	Form   string     `typejson:"word" validate:"required"`
	Source SourceKind `typejson:"source"`
}

// Word is a headword with its meanings. A Word belongs to exactly one
// repository; ID is stable for its lifetime.
type Word struct {
	ID          string            `typejson:"id"`
	Text        string            `typejson:"text"`
	MeaningSets []*WordMeaningSet `typejson:"meaning" validate:"dive,required"`
	SynForms    []SynForm         `typejson:"synForm" validate:"dive"`
	Note        string            `typejson:"note"`
	CreatedAt   time.Time         `typejson:"createTime"`
}

// NewWord creates an empty word created at now.
func NewWord(id, text string, now time.Time) *Word {
	return &Word{ID: id, Text: text, CreatedAt: now}
}
