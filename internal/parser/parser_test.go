package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name            string
		input           string
		expectedEntries int
		expectedWord    string
		expectedM       []Meaning
		expectedS       []string
		expectedN       string
	}{
		{
			name:            "Word with one meaning",
			input:           "W: run\nM: v: to move fast",
			expectedEntries: 1,
			expectedWord:    "run",
			expectedM:       []Meaning{{POS: "v", Text: "to move fast"}},
		},
		{
			name:            "Untagged meaning",
			input:           "W: run\nM: to move fast",
			expectedEntries: 1,
			expectedWord:    "run",
			expectedM:       []Meaning{{Text: "to move fast"}},
		},
		{
			name:            "Colon inside untagged text",
			input:           "W: ratio\nM: a relation such as 3: 4",
			expectedEntries: 1,
			expectedWord:    "ratio",
			expectedM:       []Meaning{{Text: "a relation such as 3: 4"}},
		},
		{
			name: "All fields and multiline note",
			input: `
W: go
M: v: to move
M: n: a board game
S: went
S: gone
N: irregular verb
see also: goes
`,
			expectedEntries: 1,
			expectedWord:    "go",
			expectedM:       []Meaning{{POS: "v", Text: "to move"}, {POS: "n", Text: "a board game"}},
			expectedS:       []string{"went", "gone"},
			expectedN:       "irregular verb\nsee also: goes",
		},
		{
			name: "Two words",
			input: `
W: run
M: v: to move fast

W: walk
M: v: to move on foot
`,
			expectedEntries: 2,
		},
		{
			name: "Separator ends a note",
			input: `
W: run
N: first
---
stray text
W: walk
`,
			expectedEntries: 2,
		},
		{
			name:            "No words, just text",
			input:           "This is a file with no words.\nM: v: orphan",
			expectedEntries: 0,
		},
		{
			name:            "Prefixes with no space",
			input:           "W:run\nM:v:to move fast\nS:ran",
			expectedEntries: 1,
			expectedWord:    "run",
			expectedM:       []Meaning{{POS: "v", Text: "to move fast"}},
			expectedS:       []string{"ran"},
		},
		{
			name:            "Empty headword is dropped",
			input:           "W:\nM: v: nothing",
			expectedEntries: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := Parse(strings.NewReader(tc.input))
			require.NoError(t, err)
			require.Len(t, entries, tc.expectedEntries)

			if tc.expectedEntries == 1 {
				e := entries[0]
				assert.Equal(t, tc.expectedWord, e.Word)
				assert.Equal(t, tc.expectedM, e.Meanings)
				assert.Equal(t, tc.expectedS, e.SynForms)
				assert.Equal(t, tc.expectedN, e.Note)
			}
		})
	}
}

func TestParseLineNumbers(t *testing.T) {
	entries, err := Parse(strings.NewReader("# list\n\nW: run\nM: v: x\n---\nW: walk\n"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Line)
	assert.Equal(t, 6, entries[1].Line)
	assert.Empty(t, entries[0].Note)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.md")
	require.NoError(t, os.WriteFile(path, []byte("W: run\nM: v: to move fast\n"), 0o644))

	entries, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run", entries[0].Word)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestParseMeaning(t *testing.T) {
	cases := map[string]Meaning{
		"v: to move fast":  {POS: "v", Text: "to move fast"},
		"to move fast":     {Text: "to move fast"},
		"v:":               {Text: "v:"},
		"note: see: other": {POS: "note", Text: "see: other"},
	}
	for in, want := range cases {
		got, ok := ParseMeaning(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseMeaning("")
	assert.False(t, ok, "empty input is rejected")
}
