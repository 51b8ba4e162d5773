// Package resume turns uploaded resume files into plain text.
package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/storage"
)

// PlaceholderText stands in for a resume whose text could not be read.
const PlaceholderText = "Resume content placeholder"

var errNoText = errors.New("no text content found")

// ObjectReader reads a stored object in full.
type ObjectReader interface {
	ReadObject(ctx context.Context, objectKey string) ([]byte, error)
}

// Extractor reads resume files from object storage and extracts their text.
type Extractor struct {
	store  ObjectReader
	logger *slog.Logger
}

// NewExtractor returns an Extractor reading from store.
func NewExtractor(store ObjectReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{store: store, logger: logger}
}

// Extract returns the text of the stored file, or PlaceholderText when the
// object cannot be read or decoded. fellBack reports the latter.
func (e *Extractor) Extract(ctx context.Context, objectKey, fileName string) (text string, fellBack bool) {
	log := e.logger.With(slog.String("object_key", objectKey), slog.String("file_name", fileName))

	data, err := e.store.ReadObject(ctx, objectKey)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			log.Warn("resume object missing, using placeholder text")
		} else {
			log.Warn("read resume object failed, using placeholder text", slog.Any("error", err))
		}
		return PlaceholderText, true
	}

	text, err = TextFromBytes(fileName, data)
	if err != nil {
		log.Warn("extract resume text failed, using placeholder text", slog.Any("error", err))
		return PlaceholderText, true
	}
	return text, false
}

// TextFromBytes decodes data according to the extension of fileName:
// PDF text layer, DOCX body text, or UTF-8 for anything else.
func TextFromBytes(fileName string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	default:
		return strings.ToValidUTF8(string(data), "\uFFFD"), nil
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("pdf: %w", errNoText)
	}
	return b.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = blankLines.ReplaceAllString(unescapeXML(content), "\n\n")

	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("docx: %w", errNoText)
	}
	return strings.TrimSpace(content), nil
}

var xmlEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}
