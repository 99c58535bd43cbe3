package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a one-page PDF showing each line at its own baseline,
// computing the cross-reference offsets as it goes.
func buildPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf\n")
	for i, line := range lines {
		fmt.Fprintf(&content, "1 0 0 1 72 %d Tm (%s) Tj\n", 720-20*i, line)
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractBytes_pdfRows(t *testing.T) {
	content := buildPDF("PARLIAMENTARY DEBATES (HANSARD)", "ORDER PAPER", "12")
	got, err := NewExtractor().ExtractBytes(content, ".pdf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	want := []string{"PARLIAMENTARY DEBATES (HANSARD)", "ORDER PAPER", "12"}
	if len(lines) != len(want) {
		t.Fatalf("got %q, want lines %q", got, want)
	}
	for i := range want {
		if strings.TrimSpace(lines[i]) != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-1.4 truncated"), ".pdf"); err == nil {
		t.Error("expected error for a truncated PDF")
	}
}
