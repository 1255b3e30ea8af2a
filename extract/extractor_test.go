package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// buildPDF writes a minimal PDF with one page per entry. An empty entry
// becomes a page whose content stream draws nothing.
func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()

	// 1: catalog, 2: page tree, 3: font, then a page and its content per entry
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var kids []string
	for _, text := range pages {
		pageID := len(objects) + 1
		contentID := pageID + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))

		var stream string
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	c, err := New().Extract("notes.MD", []byte("# Trip\nKyoto"))
	require.NoError(t, err)
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, "# Trip\nKyoto", c.Text)
	assert.Equal(t, "notes.MD", c.Name)
}

func TestExtractTextReplacesInvalidUTF8(t *testing.T) {
	c, err := New().Extract("data.csv", []byte("caf\xe9,ok"))
	require.NoError(t, err)
	assert.Equal(t, "caf�,ok", c.Text)
}

func TestExtractLegacyDoc(t *testing.T) {
	_, err := New().Extract("old.doc", []byte("whatever"))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "doc", extErr.Format)
	assert.ErrorIs(t, err, ErrLegacyDoc)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	_, err := New().Extract("archive.tar", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, IsSupported("archive.tar"))
	assert.True(t, IsSupported("photo.JPEG"))
}

func TestExtractEmptyTextFails(t *testing.T) {
	_, err := New().Extract("blank.txt", []byte("  \n "))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractDOCXParagraphs(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Day 1:</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> Kyoto</w:t></w:r></w:p>
    <w:p/>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>table cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>Day 2</w:t><w:br/><w:t>Nara</w:t></w:r></w:p>
    <w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9360"/></w:tabs></w:pPr><w:r><w:t>Day 3</w:t></w:r></w:p>
  </w:body>
</w:document>`

	c, err := New().Extract("plan.docx", buildDOCX(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "Day 1:\t Kyoto\n\nDay 2\nNara\nDay 3", c.Text)
}

func TestExtractCorruptDOCX(t *testing.T) {
	_, err := New().Extract("broken.docx", []byte("not a zip"))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "broken.docx", extErr.Name)
}

func TestExtractPDFConcatenatesPages(t *testing.T) {
	data := buildPDF(t, []string{"Day 1 Kyoto", "", "Day 2 Nara"})

	c, err := New().Extract("itinerary.pdf", data)
	require.NoError(t, err)
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, "Day 1 KyotoDay 2 Nara", c.Text)
}

func TestExtractPDFWithoutTextFails(t *testing.T) {
	_, err := New().Extract("scan.pdf", buildPDF(t, []string{"", ""}))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := New().Extract("broken.pdf", []byte("%PDF-1.4 garbage"))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "pdf", extErr.Format)
}

func TestExtractImageSniffsMIMEType(t *testing.T) {
	c, err := New().Extract("photo.jpg", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, KindImage, c.Kind)
	assert.Equal(t, "image/png", c.MIMEType)
	assert.Equal(t, pngHeader, c.Data)
}

func TestExtractImageRejectsNonImageContent(t *testing.T) {
	_, err := New().Extract("fake.png", []byte("<html><body>hi</body></html>"))

	var extErr *ExtractionError
	assert.True(t, errors.As(err, &extErr))
}
