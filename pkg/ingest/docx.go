package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/kittclouds/storygraph/pkg/pool"
)

const docxBody = "word/document.xml"

// decodeDocx extracts paragraph text from a WordprocessingML package.
func decodeDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("open docx: missing %s", docxBody)
	}
	if body.UncompressedSize64 > MaxFileSize {
		return "", ErrFileTooLarge
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()

	return paragraphs(io.LimitReader(rc, MaxFileSize))
}

// paragraphs walks the document body: w:t runs carry text, w:tab and w:br
// are whitespace, and each w:p closes a line.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	b := pool.Buffers.Get()
	defer pool.Buffers.Put(b)

	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return tidyLines(b.String()), nil
}
