// Package verify inspects cleaned text for residue the normalizer left behind.
package verify

import (
	"regexp"
	"unicode"

	"github.com/hyperjump/hansardclean/internal/models"
)

var (
	// Three or more whitespace characters in a row, newlines included.
	wideSpace = regexp.MustCompile(`[\s\p{Z}\x{85}]{3,}`)
	// Two or more consecutive blank lines.
	blankRun = regexp.MustCompile(`\n[\s\p{Z}\x{85}]*\n[\s\p{Z}\x{85}]*\n`)
)

// Check counts isolated numbers, wide whitespace runs and runs of blank lines
// in text. Issues are advisory and never fail a file.
func Check(text string) models.Issues {
	return models.Issues{
		IsolatedNumbers:     countIsolatedNumbers(text),
		ExcessiveWhitespace: len(wideSpace.FindAllStringIndex(text, -1)),
		EmptyLines:          len(blankRun.FindAllStringIndex(text, -1)),
	}
}

// countIsolatedNumbers counts maximal digit runs (any script) that are not
// glued to a letter, mark or underscore on either side: "42" in "Clause 42"
// counts, "42" in "S42" does not.
func countIsolatedNumbers(text string) int {
	count := 0
	inDigits := false
	attached := false
	var prev rune
	for _, r := range text {
		if unicode.IsDigit(r) {
			if !inDigits {
				inDigits = true
				attached = isWordRune(prev)
			}
			prev = r
			continue
		}
		if inDigits {
			if !attached && !isWordRune(r) {
				count++
			}
			inDigits = false
		}
		prev = r
	}
	if inDigits && !attached {
		count++
	}
	return count
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}
