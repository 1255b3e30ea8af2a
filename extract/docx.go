package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// extractDOCX returns the body paragraphs of a .docx joined by newlines.
// Paragraphs nested in tables are not part of the body paragraph list.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx archive has no %s", documentPart)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", documentPart, err)
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		tableDepth int
		paraDepth  int
		runDepth   int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "p":
				paraDepth++
				if paraDepth == 1 {
					current.Reset()
				}
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// w:tab also names tab stops under w:pPr; only run content counts.
				if paraDepth > 0 && runDepth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if paraDepth > 0 && runDepth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "p":
				paraDepth--
				if paraDepth == 0 && tableDepth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "r":
				runDepth--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && paraDepth > 0 {
				current.Write(t)
			}
		}
	}

	if paragraphs == nil {
		return []string{}, nil
	}
	return paragraphs, nil
}
