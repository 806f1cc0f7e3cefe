package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeOCR struct {
	text string
	err  error
	got  string
}

func (f *fakeOCR) Extract(ctx context.Context, data []byte, langHint string) (string, error) {
	_ = ctx
	_ = data
	f.got = langHint
	return f.text, f.err
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractCorruptPDFSoftFails(t *testing.T) {
	e := &Extractor{}
	res := e.Extract(context.Background(), []byte("not a pdf at all"), "application/pdf", "informe.pdf")
	if !res.Degraded {
		t.Fatal("expected degraded result for corrupt pdf")
	}
	if res.Text != "" {
		t.Fatalf("expected empty text on degraded extraction, got %q", res.Text)
	}
}

func TestExtractDocxFromZipMime(t *testing.T) {
	data := buildDocx(t, "acta de reunión")
	e := &Extractor{}
	res := e.Extract(context.Background(), data, "application/zip", "acta.docx")
	if res.Degraded {
		t.Fatal("expected docx extraction to succeed")
	}
	if !strings.Contains(res.Text, "acta de reunión") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestExtractImageUsesOCRWithLangHint(t *testing.T) {
	fake := &fakeOCR{text: "  texto escaneado  "}
	e := &Extractor{OCR: fake, LangHint: "spa"}

	res := e.Extract(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", "scan.jpg")
	if res.Degraded {
		t.Fatal("expected image extraction to succeed")
	}
	if res.Text != "texto escaneado" {
		t.Fatalf("expected trimmed OCR text, got %q", res.Text)
	}
	if fake.got != "spa" {
		t.Fatalf("expected language hint forwarded, got %q", fake.got)
	}
}

func TestExtractImageOCRFailureSoftFails(t *testing.T) {
	fake := &fakeOCR{err: errors.New("engine down")}
	e := &Extractor{OCR: fake}

	res := e.Extract(context.Background(), []byte{0xff, 0xd8}, "image/png", "scan.png")
	if !res.Degraded {
		t.Fatal("expected degraded result when OCR fails")
	}
	if res.Text != "" {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestExtractOtherReturnsPlaceholder(t *testing.T) {
	e := &Extractor{}
	res := e.Extract(context.Background(), []byte("col1,col2"), "text/csv", "padron_2025-resumen.csv")
	if res.Degraded {
		t.Fatal("placeholder path must not be degraded")
	}
	if !strings.Contains(res.Text, "padron 2025 resumen") {
		t.Fatalf("expected filename-derived placeholder, got %q", res.Text)
	}
}
