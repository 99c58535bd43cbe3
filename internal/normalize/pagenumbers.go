package normalize

import "regexp"

// pageNumberLine matches a line made only of decimal digits (any script)
// with optional punctuation and whitespace around them: "42", "- 42 -", "(42)".
var pageNumberLine = regexp.MustCompile(`^[\p{P}\p{Z}\s]*\p{Nd}+[\p{P}\p{Z}\s]*$`)

// PageNumberRule drops lines that are only a page number.
type PageNumberRule struct{}

// NewPageNumberRule returns the page-number rule.
func NewPageNumberRule() PageNumberRule { return PageNumberRule{} }

// Name returns "page_numbers".
func (PageNumberRule) Name() string { return "page_numbers" }

// Apply drops page-number lines.
func (PageNumberRule) Apply(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if IsPageNumber(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// IsPageNumber reports whether line consists solely of a page number.
func IsPageNumber(line string) bool {
	return pageNumberLine.MatchString(line)
}
