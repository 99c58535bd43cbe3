package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
)

// odtContentPath is the path to the document body inside an .odt zip.
const odtContentPath = "content.xml"

// odtMarkup keeps all character data inside text:p and text:h elements,
// including nested spans.
var odtMarkup = markup{
	para: regexp.MustCompile(`(?s)<text:(p|h)[ >].*?</text:(p|h)>`),
	breaks: map[string]string{
		"text:tab":        " ",
		"text:s":          " ",
		"text:line-break": "\n",
	},
}

// extractODT extracts text from .odt bytes, one line per paragraph or heading.
func extractODT(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract ODT: not a zip: %w", err)
	}
	contentXML, err := readZipEntry(zr, odtContentPath)
	if err != nil {
		return "", fmt.Errorf("extract ODT: %w", err)
	}
	return paragraphText(string(contentXML), odtMarkup), nil
}
