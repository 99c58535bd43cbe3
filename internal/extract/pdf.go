package extract

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text of each page top to bottom, one line per text
// row, so page banners and page numbers stay on their own lines for the
// header and page-number rules.
func extractPDF(content []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, pageText(rows))
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(rows pdf.Rows) string {
	// Higher Y is nearer the top of the page.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := row.Content
		sort.SliceStable(words, func(i, j int) bool { return words[i].X < words[j].X })
		var sb strings.Builder
		for _, w := range words {
			sb.WriteString(w.S)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
