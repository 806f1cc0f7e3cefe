package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"records-backend/internal/ocr"
	"records-backend/internal/shared/telemetry"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Result carries the extracted text and whether extraction was degraded.
// Degraded means the extraction path failed and was recovered with empty
// text; ingestion continues either way.
type Result struct {
	Text     string
	Degraded bool
}

// Extractor pulls text from uploaded payloads. PDF and DOCX are parsed
// in-process; images go through the OCR engine. Every path soft-fails:
// failures produce an empty, degraded result rather than an error.
type Extractor struct {
	OCR      ocr.Engine
	LangHint string
}

// Extract returns the text content of a payload.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string, fileName string) Result {
	if err := ctx.Err(); err != nil {
		return degraded(mimeType, fileName, err)
	}

	normalized := normalizeMimeType(mimeType, fileName, data)
	switch {
	case normalized == mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return degraded(normalized, fileName, err)
		}
		return Result{Text: text}
	case normalized == mimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return degraded(normalized, fileName, err)
		}
		return Result{Text: text}
	case strings.HasPrefix(normalized, "image/"):
		if e.OCR == nil {
			return degraded(normalized, fileName, errors.New("no ocr engine configured"))
		}
		text, err := e.OCR.Extract(ctx, data, e.LangHint)
		if err != nil {
			return degraded(normalized, fileName, err)
		}
		return Result{Text: strings.TrimSpace(text)}
	default:
		return Result{Text: placeholderText(fileName)}
	}
}

func degraded(mimeType, fileName string, err error) Result {
	telemetry.Warn("extract.degraded", map[string]any{
		"mime_type": mimeType,
		"file_name": fileName,
		"error":     err.Error(),
	})
	return Result{Degraded: true}
}

func placeholderText(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return fmt.Sprintf("Documento adjunto: %s", strings.TrimSpace(base))
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".docx" {
		return mimeDOCX
	}
	return clean
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
