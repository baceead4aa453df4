package lexkey

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Policy decides how headwords are compared.
type Policy struct {
	IgnoreCase bool
}

// Key returns the comparison key of text under the policy. Case-sensitive
// keys are the text itself; nothing is trimmed.
func (p Policy) Key(text string) string {
	if p.IgnoreCase {
		return strings.ToLower(text)
	}
	return text
}

// Equal reports whether two headwords name the same word.
func (p Policy) Equal(a, b string) bool {
	if p.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Contains reports whether query occurs in text. An empty query matches everything.
func (p Policy) Contains(text, query string) bool {
	if p.IgnoreCase {
		return strings.Contains(strings.ToLower(text), strings.ToLower(query))
	}
	return strings.Contains(text, query)
}

// Checksum returns the hex SHA-256 of the parts joined by newlines, so that
// ("ab", "c") and ("a", "bc") hash differently.
func Checksum(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return fmt.Sprintf("%x", sum)
}
