// Package verify checks interpreter output against oracle traces.
package verify

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Report is the result of comparing an expected trace with actual output.
type Report struct {
	Equal bool

	// FirstDiff is the 1-based number of the first differing line,
	// or 0 when the outputs are equal.
	FirstDiff int
	Want      string // expected text of that line
	Got       string // actual text of that line

	// Diff is a unified line diff, empty when the outputs are equal.
	Diff string
}

// Compare compares want and got byte for byte and describes the first
// difference line by line.
func Compare(want, got string) Report {
	if want == got {
		return Report{Equal: true}
	}

	r := Report{}
	wantLines := difflib.SplitLines(want)
	gotLines := difflib.SplitLines(got)
	for i := 0; ; i++ {
		w, wok := line(wantLines, i)
		g, gok := line(gotLines, i)
		if w != g || wok != gok {
			r.FirstDiff = i + 1
			r.Want = strings.TrimSuffix(w, "\n")
			r.Got = strings.TrimSuffix(g, "\n")
			break
		}
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        wantLines,
		B:        gotLines,
		FromFile: "oracle",
		ToFile:   "interpreter",
		Context:  2,
	})
	if err != nil {
		diff = err.Error()
	}
	r.Diff = diff
	return r
}

// line returns lines[i] and whether it exists.
func line(lines []string, i int) (string, bool) {
	if i < len(lines) {
		return lines[i], true
	}
	return "", false
}
