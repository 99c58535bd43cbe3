package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/hyperjump/hansardclean/internal/config"
)

const (
	zwnj = '\u200c'
	zwj  = '\u200d'
)

// allowedPunctuation is kept in strict charset mode.
const allowedPunctuation = `.,;:!?()[]{}"'-–—/%&+=*@#“”‘’…·`

// ArtifactRule removes OCR noise from each line. Removed runs are replaced by
// a space when they sit between words so words do not fuse; the whitespace
// rule collapses the result.
type ArtifactRule struct {
	noise      transform.Transformer
	strict     transform.Transformer
	separators *regexp.Regexp
	tokens     []string
	patterns   []*regexp.Regexp
}

// NewArtifactRule builds the rule from config. Pattern compile errors and
// unknown script names are returned.
func NewArtifactRule(cfg config.ArtifactsConfig) (*ArtifactRule, error) {
	r := &ArtifactRule{
		noise: runes.Remove(runes.Predicate(IsNoiseRune)),
	}
	if cfg.SeparatorChars != "" && cfg.SeparatorMinRun > 0 {
		re, err := separatorRunPattern(cfg.SeparatorChars, cfg.SeparatorMinRun)
		if err != nil {
			return nil, err
		}
		r.separators = re
	}
	for _, tok := range cfg.Tokens {
		if tok != "" {
			r.tokens = append(r.tokens, tok)
		}
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile artifact pattern %q: %w", p, err)
		}
		if re.MatchString("") {
			return nil, fmt.Errorf("artifact pattern %q matches the empty string", p)
		}
		r.patterns = append(r.patterns, re)
	}
	if cfg.StrictCharset {
		tables, err := scriptTables(cfg.Scripts)
		if err != nil {
			return nil, err
		}
		r.strict = runes.Remove(runes.Predicate(func(c rune) bool {
			return !allowedInStrict(c, tables)
		}))
	}
	return r, nil
}

// Name returns "artifacts".
func (r *ArtifactRule) Name() string { return "artifacts" }

// Apply cleans every line. Lines are never dropped here; a line that becomes
// blank is handled by the blank-line rule.
func (r *ArtifactRule) Apply(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = r.CleanLine(line)
	}
	return out
}

// CleanLine removes noise runes, separator runs, configured tokens and
// configured patterns from one line.
func (r *ArtifactRule) CleanLine(line string) string {
	line = removeWith(r.noise, line)
	if r.strict != nil {
		line = removeWith(r.strict, line)
	}
	if r.separators != nil {
		line = r.separators.ReplaceAllString(line, " ")
	}
	for _, tok := range r.tokens {
		line = strings.ReplaceAll(line, tok, " ")
	}
	for _, re := range r.patterns {
		line = re.ReplaceAllString(line, " ")
	}
	return line
}

// IsNoiseRune reports whether c is an OCR artifact that never belongs in
// transcript text: control characters other than tab, format characters other
// than the joiners Sinhala conjuncts need, private-use and surrogate code
// points, noncharacters, and the replacement character.
func IsNoiseRune(c rune) bool {
	switch {
	case c == '\t':
		return false
	case c == zwj || c == zwnj:
		return false
	case c == utf8.RuneError:
		return true
	case unicode.Is(unicode.Cc, c), unicode.Is(unicode.Cf, c):
		return true
	case unicode.Is(unicode.Co, c), unicode.Is(unicode.Cs, c):
		return true
	case unicode.Is(unicode.Noncharacter_Code_Point, c):
		return true
	}
	return false
}

// removeWith applies a stateless removal transformer. runes.Remove never
// fails on string input; the fallback keeps the function total regardless.
func removeWith(t transform.Transformer, s string) string {
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// separatorRunPattern matches minRun or more repeats of any single separator
// character, e.g. ".........." leaders or "------" rules.
func separatorRunPattern(chars string, minRun int) (*regexp.Regexp, error) {
	seen := make(map[rune]bool)
	var alts []string
	for _, c := range chars {
		if seen[c] || unicode.IsSpace(c) {
			continue
		}
		seen[c] = true
		alts = append(alts, fmt.Sprintf("%s{%d,}", regexp.QuoteMeta(string(c)), minRun))
	}
	if len(alts) == 0 {
		return nil, nil
	}
	re, err := regexp.Compile(strings.Join(alts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile separator pattern: %w", err)
	}
	return re, nil
}

func scriptTables(names []string) ([]*unicode.RangeTable, error) {
	tables := make([]*unicode.RangeTable, 0, len(names))
	for _, name := range names {
		t, ok := unicode.Scripts[name]
		if !ok {
			return nil, fmt.Errorf("unknown script %q", name)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func allowedInStrict(c rune, tables []*unicode.RangeTable) bool {
	switch {
	case unicode.IsSpace(c), c == zwj, c == zwnj:
		return true
	case unicode.IsDigit(c):
		return true
	case strings.ContainsRune(allowedPunctuation, c):
		return true
	}
	return unicode.In(c, tables...)
}
