// Package normalize cleans OCR transcript text by running an ordered chain of
// line rules: header/footer removal, page-number removal, OCR artifact
// cleanup, whitespace normalization, and blank-line collapsing.
package normalize

import (
	"strings"

	"github.com/hyperjump/hansardclean/internal/models"
)

// Rule transforms a document's lines. Rules must be pure: they may drop lines,
// delete characters, or turn characters into spaces, but never add content or
// reorder lines.
type Rule interface {
	Name() string
	Apply(lines []string) []string
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(lines []string) []string
}

// Name returns the rule name.
func (r RuleFunc) Name() string { return r.RuleName }

// Apply runs the function.
func (r RuleFunc) Apply(lines []string) []string { return r.Fn(lines) }

// Normalizer runs its rules in order until the output stops changing.
// It is safe for concurrent use as long as its rules are.
type Normalizer struct {
	rules       []Rule
	terminator  string
	fingerprint string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCRLF makes Normalize join lines with "\r\n" instead of "\n".
func WithCRLF() Option {
	return func(n *Normalizer) { n.terminator = "\r\n" }
}

// WithFingerprint records a rule-set fingerprint, reported by Fingerprint.
func WithFingerprint(fp string) Option {
	return func(n *Normalizer) { n.fingerprint = fp }
}

// New returns a Normalizer that applies rules in the order given.
func New(rules []Rule, opts ...Option) *Normalizer {
	n := &Normalizer{
		rules:      append([]Rule(nil), rules...),
		terminator: "\n",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Rules returns the rule chain in application order.
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}

// Fingerprint identifies the rule set the normalizer was built from; empty
// when built directly with New.
func (n *Normalizer) Fingerprint() string {
	return n.fingerprint
}

// Normalize cleans text and reassembles it with the configured line terminator.
// Non-empty output always ends with exactly one terminator. Empty input, or
// input whose every line is removed, yields "".
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	lines := n.NormalizeLines(SplitLines(text))
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, n.terminator) + n.terminator
}

// NormalizeDocument cleans a document's lines, keeping its name.
func (n *Normalizer) NormalizeDocument(doc *models.Document) *models.Document {
	return &models.Document{Name: doc.Name, Lines: n.NormalizeLines(doc.Lines)}
}

// NormalizeLines runs the chain to a fixed point. A single pass can expose new
// matches (a header only recognisable once its separator dots are gone), so the
// chain repeats until a pass changes nothing. Every rule only deletes or blanks
// content, so the loop terminates.
func (n *Normalizer) NormalizeLines(lines []string) []string {
	cur := append([]string(nil), lines...)
	for {
		next := n.pass(cur)
		if equalLines(next, cur) {
			return next
		}
		cur = next
	}
}

func (n *Normalizer) pass(lines []string) []string {
	out := append([]string(nil), lines...)
	for _, r := range n.rules {
		out = r.Apply(out)
	}
	return out
}

// SplitLines splits text into lines, treating "\r\n", "\r" and "\n" as line
// ends. A single trailing line end does not produce an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
