// Package extract converts uploaded files into prompt-ready content: plain
// text for documents, raw bytes plus MIME type for images.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
)

// Kind is the kind of extracted content
type Kind int

const (
	KindText Kind = iota
	KindImage
)

// Content is the result of a successful extraction
type Content struct {
	Kind     Kind
	Name     string
	Text     string
	MIMEType string
	Data     []byte
}

var (
	// ErrLegacyDoc is returned for .doc files; the user must convert them.
	ErrLegacyDoc = errors.New("legacy .doc files are not supported, convert to .docx or .pdf")
	// ErrUnsupportedFormat is returned for extensions that are not recognized.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrNoText is returned when a document yields no text at all.
	ErrNoText = errors.New("no text could be extracted")
)

// ExtractionError reports a file that could not be turned into content
type ExtractionError struct {
	Name   string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract %s content from '%s': %v", e.Format, e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns raw upload bytes into content
type Extractor interface {
	Extract(name string, data []byte) (Content, error)
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".py": true, ".csv": true,
	".html": true, ".css": true, ".js": true, ".json": true,
}

var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// FileExtractor dispatches on the file extension
type FileExtractor struct{}

// New returns the default extractor
func New() *FileExtractor {
	return &FileExtractor{}
}

// Extract implements Extractor
func (FileExtractor) Extract(name string, data []byte) (Content, error) {
	ext := strings.ToLower(filepath.Ext(name))

	if fallback, ok := imageExtensions[ext]; ok {
		return extractImage(name, ext, fallback, data)
	}

	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = extractPDF(data)
	case ext == ".docx":
		text, err = extractDOCX(data)
	case ext == ".doc":
		err = ErrLegacyDoc
	case textExtensions[ext]:
		text = decodeText(data)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return Content{}, &ExtractionError{Name: name, Format: formatName(ext), Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return Content{}, &ExtractionError{Name: name, Format: formatName(ext), Err: ErrNoText}
	}

	return Content{Kind: KindText, Name: name, Text: text}, nil
}

// IsSupported reports whether a file name has a recognized extension
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, isImage := imageExtensions[ext]
	return isImage || textExtensions[ext] || ext == ".pdf" || ext == ".docx"
}

func extractImage(name, ext, fallback string, data []byte) (Content, error) {
	if len(data) == 0 {
		return Content{}, &ExtractionError{Name: name, Format: formatName(ext), Err: errors.New("empty image")}
	}

	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		if mime != "application/octet-stream" {
			return Content{}, &ExtractionError{
				Name:   name,
				Format: formatName(ext),
				Err:    fmt.Errorf("content is %s, not an image", mime),
			}
		}
		mime = fallback
	}

	return Content{Kind: KindImage, Name: name, MIMEType: mime, Data: data}, nil
}

// decodeText decodes UTF-8, replacing invalid bytes with U+FFFD
func decodeText(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(out)
}

func formatName(ext string) string {
	if ext == "" {
		return "unknown"
	}
	return strings.TrimPrefix(ext, ".")
}
