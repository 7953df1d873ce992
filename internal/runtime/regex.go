// Package runtime provides runtime support for compiled fixture programs:
// regex matching and C printf formatting.
package runtime

import "github.com/coregx/coregex"

// Regex wraps coregex with the pattern it was compiled from.
// A Regex is safe for concurrent use.
type Regex struct {
	pattern string
	re      *coregex.Regexp
}

// Compile creates a new Regex using leftmost-longest matching.
func Compile(pattern string) (*Regex, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	re.Longest()
	return &Regex{pattern: pattern, re: re}, nil
}

// MustCompile creates a Regex, panicking on error.
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Pattern returns the original pattern string.
func (r *Regex) Pattern() string {
	return r.pattern
}

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.re.MatchString(s)
}

// FindAllStringIndex returns all non-overlapping matches.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	return r.re.FindAllStringIndex(s, n)
}
