package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"
)

const (
	wordPrefix    = "W:"
	meaningPrefix = "M:"
	synFormPrefix = "S:"
	notePrefix    = "N:"
	separator     = "---"
)

// Meaning is one "M:" line. POS is empty when the line had no tag.
type Meaning struct {
	POS  string
	Text string
}

// Entry is one word block of a word list.
type Entry struct {
	Word     string
	Meanings []Meaning
	SynForms []string
	Note     string
	Line     int
}

type state int

const (
	seeking state = iota
	readingWord
	readingNote
)

// ParseFile reads a word list from the given path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads word blocks from r. A block starts at a "W:" line and ends at
// the next "W:" line or a "---" separator. Lines outside a block are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current Entry
	var note []string
	currentState := seeking
	lineNo := 0

	finishEntry := func() {
		if len(note) > 0 {
			current.Note = strings.TrimRight(strings.Join(note, "\n"), "\n ")
			note = nil
		}
		if current.Word != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		currentState = seeking
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == separator {
			finishEntry()
			continue
		}

		if strings.HasPrefix(line, wordPrefix) {
			finishEntry()
			current = Entry{Word: content(line, wordPrefix), Line: lineNo}
			currentState = readingWord
			continue
		}
		if currentState == seeking {
			continue
		}

		switch {
		case strings.HasPrefix(line, meaningPrefix):
			currentState = readingWord
			if m, ok := ParseMeaning(content(line, meaningPrefix)); ok {
				current.Meanings = append(current.Meanings, m)
			}
		case strings.HasPrefix(line, synFormPrefix):
			currentState = readingWord
			if form := content(line, synFormPrefix); form != "" {
				current.SynForms = append(current.SynForms, form)
			}
		case strings.HasPrefix(line, notePrefix):
			currentState = readingNote
			note = append(note[:0], content(line, notePrefix))
		case currentState == readingNote:
			note = append(note, line)
		}
	}

	finishEntry() // Finish the very last entry in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func content(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}

// ParseMeaning splits "pos: text". A tag is a single word; anything else
// is taken as untagged text.
func ParseMeaning(s string) (Meaning, bool) {
	if s == "" {
		return Meaning{}, false
	}
	tag, text, found := strings.Cut(s, ":")
	if found && tag != "" && !strings.ContainsFunc(tag, unicode.IsSpace) {
		if text = strings.TrimSpace(text); text != "" {
			return Meaning{POS: tag, Text: text}, true
		}
	}
	return Meaning{Text: s}, true
}
