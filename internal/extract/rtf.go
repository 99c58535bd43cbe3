package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractRTF converts RTF bytes to text. cat detects the format from the
// content, so non-RTF bytes with a .rtf name are still read correctly.
func extractRTF(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract RTF: %w", err)
	}
	return text, nil
}
