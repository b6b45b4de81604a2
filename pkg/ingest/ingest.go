// Package ingest converts manuscript files into the plain text the analysis
// pipeline consumes.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxFileSize is the largest file Decode accepts.
const MaxFileSize = 10 << 20

// Format is a supported source format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatDocx     Format = "docx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNotUTF8           = errors.New("content is not valid UTF-8")
)

// FormatError reports a file whose type is not recognized.
type FormatError struct {
	Ext  string
	Mime string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported format: ext=%q mime=%q", e.Ext, e.Mime)
}

func (e *FormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

var byMime = map[string]Format{
	"text/plain":       FormatText,
	"text/markdown":    FormatMarkdown,
	"text/x-markdown":  FormatMarkdown,
	"text/html":        FormatHTML,
	"application/json": FormatJSON,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDocx,
}

var byExt = map[string]Format{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".json":     FormatJSON,
	".docx":     FormatDocx,
}

// Detect resolves the format of a file. A declared MIME type wins over the
// extension; parameters such as charset are ignored.
func Detect(path, mime string) (Format, error) {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if f, ok := byMime[m]; ok {
		return f, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := byExt[ext]; ok {
		return f, nil
	}
	return "", &FormatError{Ext: ext, Mime: mime}
}

// Decode reads the file at path and returns its plain text.
func Decode(path, mime string) (string, error) {
	format, err := Detect(path, mime)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrFileTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeBytes(data, format)
}

// DecodeBytes converts raw content of a known format to plain text.
func DecodeBytes(data []byte, format Format) (string, error) {
	if len(data) > MaxFileSize {
		return "", ErrFileTooLarge
	}

	switch format {
	case FormatDocx:
		return decodeDocx(data)
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON:
	default:
		return "", &FormatError{Mime: string(format)}
	}

	text, err := utf8Text(data)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatHTML:
		return decodeHTML(text)
	case FormatJSON:
		return decodeJSON(text)
	}
	return text, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// utf8Text strips a byte order mark, transcoding UTF-16 when one is present.
func utf8Text(data []byte) (string, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16: %w", err)
		}
		return string(out), nil
	}
	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return "", ErrNotUTF8
	}
	return string(data), nil
}
