package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	// ErrUnsupportedFileType is returned for extensions outside SupportedExtensions.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrExtractionFailed matches every *ExtractionError.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// SupportedExtensions lists the accepted lower-case extensions, including the dot.
var SupportedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// ExtractionError carries the parser failure for a file of the given extension.
type ExtractionError struct {
	Ext string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Ext, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// IsSupported reports whether ext (with or without leading dot, any case) can be extracted.
func IsSupported(ext string) bool {
	norm := normalizeExt(ext)
	for _, s := range SupportedExtensions {
		if s == norm {
			return true
		}
	}
	return false
}

// Extract returns the plain text of data interpreted by ext. It never returns
// partial text together with an error.
func Extract(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	norm := normalizeExt(ext)
	if !IsSupported(norm) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	var (
		text string
		err  error
	)
	switch norm {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx", ".doc":
		// .doc goes through the OOXML reader; legacy binary files fail here.
		text, err = extractDOCX(data)
	case ".txt":
		text, err = extractTXT(data)
	}
	if err != nil {
		return "", &ExtractionError{Ext: norm, Err: err}
	}
	return text, nil
}

func normalizeExt(ext string) string {
	e := strings.ToLower(strings.TrimSpace(ext))
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
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
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	raw := doc.Editable().GetContent()
	if raw == "" {
		return "", errors.New("document.xml is empty")
	}
	return stripDocxXML(raw)
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text is not valid UTF-8")
	}
	return string(data), nil
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
