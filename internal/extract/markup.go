package extract

import (
	"html"
	"regexp"
	"strings"
)

// xmlTag matches a start, end or empty-element tag, capturing the leading
// slash, the element name and the trailing slash.
var xmlTag = regexp.MustCompile(`<(/?)([^\s/>]+)[^>]*?(/?)>`)

// markup describes where a zipped XML document keeps its paragraph text.
type markup struct {
	para   *regexp.Regexp    // matches one whole paragraph
	text   string            // element whose character data is kept; empty keeps all
	skip   string            // element whose subtree is ignored
	breaks map[string]string // empty elements that stand for a separator
}

// paragraphText returns the text of every paragraph in doc, one per line,
// with XML entities decoded.
func paragraphText(doc string, m markup) string {
	var lines []string
	for _, para := range m.para.FindAllString(doc, -1) {
		lines = append(lines, m.paragraph(para))
	}
	return strings.Join(lines, "\n")
}

func (m markup) paragraph(para string) string {
	var b strings.Builder
	inText := m.text == ""
	skipping := 0
	last := 0
	for _, loc := range xmlTag.FindAllStringSubmatchIndex(para, -1) {
		if inText && skipping == 0 {
			b.WriteString(html.UnescapeString(para[last:loc[0]]))
		}
		last = loc[1]
		closing := loc[3] > loc[2]
		name := para[loc[4]:loc[5]]
		empty := loc[7] > loc[6]

		switch {
		case empty && name == m.skip:
		case name == m.skip:
			if !closing {
				skipping++
			} else if skipping > 0 {
				skipping--
			}
		case skipping > 0:
		case empty:
			b.WriteString(m.breaks[name])
		case name == m.text:
			inText = !closing
		}
	}
	if inText && skipping == 0 {
		b.WriteString(html.UnescapeString(para[last:]))
	}
	return b.String()
}
