package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/hansardclean/internal/config"
)

// HeaderMatcher recognises one kind of header/footer line.
type HeaderMatcher struct {
	literal   string
	re        *regexp.Regexp
	following int
}

// NewHeaderMatcher compiles a header spec. Patterns are anchored so they must
// match the whole trimmed line.
func NewHeaderMatcher(spec config.HeaderSpec) (*HeaderMatcher, error) {
	m := &HeaderMatcher{following: spec.Following}
	switch {
	case spec.Literal != "" && spec.Pattern != "":
		return nil, fmt.Errorf("header spec sets both literal and pattern")
	case spec.Literal != "":
		m.literal = collapseSpaces(strings.TrimSpace(spec.Literal))
	case spec.Pattern != "":
		re, err := regexp.Compile(`^(?:` + spec.Pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("compile header pattern %q: %w", spec.Pattern, err)
		}
		m.re = re
	default:
		return nil, fmt.Errorf("header spec needs a literal or a pattern")
	}
	return m, nil
}

// Match reports whether the trimmed, space-collapsed line is this header.
func (m *HeaderMatcher) Match(key string) bool {
	if m.re != nil {
		return m.re.MatchString(key)
	}
	return key == m.literal
}

// HeaderRule drops header and footer lines, plus any trailing lines a matcher
// asks for.
type HeaderRule struct {
	matchers []*HeaderMatcher
}

// NewHeaderRule compiles every spec; the first compile error is returned.
func NewHeaderRule(specs []config.HeaderSpec) (*HeaderRule, error) {
	r := &HeaderRule{}
	for i, spec := range specs {
		m, err := NewHeaderMatcher(spec)
		if err != nil {
			return nil, fmt.Errorf("header %d: %w", i, err)
		}
		r.matchers = append(r.matchers, m)
	}
	return r, nil
}

// Name returns "headers".
func (r *HeaderRule) Name() string { return "headers" }

// Apply drops matching lines. When a matcher has Following > 0, that many
// subsequent non-blank lines are dropped as well; blank lines in between stay.
// A header dropped as another header's following line still adds its own count.
func (r *HeaderRule) Apply(lines []string) []string {
	if len(r.matchers) == 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	skip := 0
	for _, line := range lines {
		key := collapseSpaces(strings.TrimSpace(line))
		if key == "" {
			out = append(out, line)
			continue
		}
		if skip > 0 {
			skip--
			if m := r.match(key); m != nil {
				skip += m.following
			}
			continue
		}
		if m := r.match(key); m != nil {
			skip = m.following
			continue
		}
		out = append(out, line)
	}
	return out
}

func (r *HeaderRule) match(key string) *HeaderMatcher {
	for _, m := range r.matchers {
		if m.Match(key) {
			return m
		}
	}
	return nil
}
