package normalize

import (
	"strings"
	"unicode"
)

// WhitespaceRule collapses runs of horizontal whitespace (spaces, tabs, NBSP and
// other Unicode spaces) into one ASCII space and trims both ends of each line.
type WhitespaceRule struct{}

// NewWhitespaceRule returns the whitespace rule.
func NewWhitespaceRule() WhitespaceRule { return WhitespaceRule{} }

// Name returns "whitespace".
func (WhitespaceRule) Name() string { return "whitespace" }

// Apply normalizes spacing on every line.
func (WhitespaceRule) Apply(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = collapseSpaces(strings.TrimSpace(line))
	}
	return out
}

// collapseSpaces replaces each run of whitespace with a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteByte(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return b.String()
}

// BlankLineRule limits runs of blank lines and drops blank lines at the start
// and end of the document.
type BlankLineRule struct {
	maxRun int
}

// NewBlankLineRule keeps at most maxRun consecutive blank lines; 0 removes them all.
func NewBlankLineRule(maxRun int) BlankLineRule {
	if maxRun < 0 {
		maxRun = 0
	}
	return BlankLineRule{maxRun: maxRun}
}

// Name returns "blank_lines".
func (BlankLineRule) Name() string { return "blank_lines" }

// Apply collapses blank-line runs. A line is blank when it holds only whitespace;
// kept blank lines are emitted as "".
func (r BlankLineRule) Apply(lines []string) []string {
	out := make([]string, 0, len(lines))
	run := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			run++
			if len(out) == 0 || run > r.maxRun {
				continue
			}
			out = append(out, "")
			continue
		}
		run = 0
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
