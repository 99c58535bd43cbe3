package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain returns content as a string without its byte order mark.
// Invalid UTF-8 is an error unless the extractor replaces it.
func (e *Extractor) extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		if !e.replaceInvalid {
			return "", ErrInvalidEncoding
		}
		return strings.ToValidUTF8(string(content), "\ufffd"), nil
	}
	return string(content), nil
}
