// Package preflight inspects a resume file locally before upload, so the
// caller can reject unsupported or empty documents without a server
// round-trip. The server revalidates; this only saves the trip.
package preflight

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Report summarizes a local inspection.
type Report struct {
	// Format is the detected document format: "pdf", "docx", or "txt".
	Format string
	// Characters counts extractable text characters. Zero usually means a
	// scanned image PDF, which the backend cannot chunk.
	Characters int
}

// Inspect extracts text from the file by extension and reports on it.
// Unsupported extensions are an error.
func Inspect(filename string, data []byte) (*Report, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return nil, err
		}
		return &Report{Format: "pdf", Characters: len(strings.TrimSpace(text))}, nil
	case ".docx":
		text, err := extractDocxText(data)
		if err != nil {
			return nil, err
		}
		return &Report{Format: "docx", Characters: len(strings.TrimSpace(text))}, nil
	case ".txt":
		return &Report{Format: "txt", Characters: len(bytes.TrimSpace(data))}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

func extractPDFText(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		textBuilder.WriteString(text)
	}
	return textBuilder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

// ReadAll buffers the file for Inspect and for the subsequent upload.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
