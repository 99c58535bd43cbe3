package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	content := []byte("Hello world\nLine 2")
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainSinhala(t *testing.T) {
	e := NewExtractor()
	content := []byte("ශ්‍රී ලංකාව\nகௌரவ")
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != string(content) {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainStripsBOM(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("\xef\xbb\xbfHansard"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hansard" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	content := []byte("hello\x80world")

	_, err := NewExtractor().ExtractBytes(content, ".txt")
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("err = %v, want ErrInvalidEncoding", err)
	}

	got, err := NewExtractor(WithReplaceInvalidUTF8(true)).ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello\ufffdworld" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract("/nonexistent/path/file.txt")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractBytes_unknownExtension(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	// Unknown extension falls back to plain
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

const docxBody = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p w:rsidR="00A1"><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>PARLIAMENTARY DEBATES</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">The House </w:t></w:r><w:r><w:t>met &amp; adjourned</w:t></w:r></w:p>` +
	`<w:p/>` +
	`<w:p><w:r><w:t>42</w:t></w:r></w:p>` +
	`</w:body></w:document>`

// minimalDocx returns a minimal .docx zip with word/document.xml holding body.
func minimalDocx(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(body))
	_ = w.Close()
	return buf.Bytes()
}

// minimalDocxWithContentTypes returns a .docx zip with [Content_Types].xml pointing to a custom document path.
func minimalDocxWithContentTypes(text, docPath string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + docPath + `" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(minimalDocx(docxBody), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "PARLIAMENTARY DEBATES\nThe House met & adjourned\n42"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_docxWithDocument2(t *testing.T) {
	e := NewExtractor()
	content := minimalDocxWithContentTypes("Content from document2", "word/document2.xml")
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypesReversedOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document3.xml"/>
</Types>`))
	fw, _ := w.Create("word/document3.xml")
	_, _ = fw.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Reversed order test</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Reversed order test" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := e.ExtractBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when document.xml is missing")
	}
}

// minimalOdt returns minimal .odt zip bytes with the given content.xml.
func minimalOdt(contentXML string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("content.xml")
	_, _ = fw.Write([]byte(contentXML))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_odt(t *testing.T) {
	contentXML := `<office:document-content><office:body><office:text>` +
		`<text:h text:outline-level="1">ORAL ANSWERS</text:h>` +
		`<text:p text:style-name="P1">Hon. <text:span text:style-name="T1">Member</text:span> rose.</text:p>` +
		`<text:p>12</text:p>` +
		`</office:text></office:body></office:document-content>`
	got, err := NewExtractor().ExtractBytes(minimalOdt(contentXML), ".odt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "ORAL ANSWERS\nHon. Member rose.\n12"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_inlineSeparators(t *testing.T) {
	tests := []struct {
		name    string
		ext     string
		content []byte
	}{
		{
			name: "odt",
			ext:  ".odt",
			content: minimalOdt(`<office:document-content><office:body><office:text>` +
				`<text:p>Mr.<text:tab/>Speaker<text:line-break/>took<text:s/>the chair</text:p>` +
				`</office:text></office:body></office:document-content>`),
		},
		{
			name: "docx",
			ext:  ".docx",
			content: minimalDocx(`<w:document><w:body><w:p>` +
				`<w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
				`<w:r><w:t>Mr.</w:t><w:tab/><w:t>Speaker</w:t><w:br/><w:t xml:space="preserve">took the chair</w:t></w:r>` +
				`<w:r><w:instrText> PAGE </w:instrText></w:r>` +
				`</w:p></w:body></w:document>`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor().ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if want := "Mr. Speaker\ntook the chair"; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestExtractBytes_odtContentNotFound(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := NewExtractor().ExtractBytes(buf.Bytes(), ".odt"); err == nil {
		t.Error("expected error when content.xml missing")
	}
}

func TestExtractBytes_rtf(t *testing.T) {
	content := []byte(`{\rtf1\ansi\deff0 {\fonttbl {\f0 Times;}}\f0 Order of business\par}`)
	got, err := NewExtractor().ExtractBytes(content, ".rtf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "Order of business") {
		t.Errorf("got %q", got)
	}
}

func TestMatchExtension(t *testing.T) {
	exts := []string{".txt", ".PDF"}
	tests := []struct {
		path string
		want bool
	}{
		{"raw_texts/2019-03-05.txt", true},
		{"raw_texts/2019-03-05.TXT", true},
		{"scan.pdf", true},
		{"notes.md", false},
		{"README", false},
	}
	for _, tt := range tests {
		if got := MatchExtension(tt.path, exts); got != tt.want {
			t.Errorf("MatchExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if MatchExtension("a.txt", nil) {
		t.Error("empty extension list should match nothing")
	}
}

func TestOutputName(t *testing.T) {
	tests := map[string]string{
		"2019-03-05.txt":      "2019-03-05.txt",
		"2019-03-05.TXT":      "2019-03-05.TXT",
		"dir/sitting.pdf":     "sitting.txt",
		"sitting.docx":        "sitting.txt",
		"no_extension":        "no_extension.txt",
		"volume.245.no.3.odt": "volume.245.no.3.txt",
	}
	for in, want := range tests {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
