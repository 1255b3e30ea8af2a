package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Current())
}

func TestStoreTextReplacesImage(t *testing.T) {
	s := NewStore()
	s.SetImage("cat.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	s.SetText("notes.txt", "hello")

	doc, ok := s.Current().(TextDocument)
	require.True(t, ok, "expected a text document, got %T", s.Current())
	assert.Equal(t, "notes.txt", doc.Name)
	assert.Equal(t, "hello", doc.Text)
}

func TestStoreImageReplacesText(t *testing.T) {
	s := NewStore()
	s.SetText("notes.txt", "hello")
	s.SetImage("cat.png", "image/png", []byte{1, 2, 3})

	img, ok := s.Current().(Image)
	require.True(t, ok, "expected an image, got %T", s.Current())
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, img.Data)
}

func TestStoreImageCopiesBytes(t *testing.T) {
	s := NewStore()
	data := []byte{1, 2, 3}
	s.SetImage("a.gif", "image/gif", data)
	data[0] = 9

	assert.Equal(t, byte(1), s.Current().(Image).Data[0])
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.SetText("notes.txt", "hello")
	s.Clear()
	assert.Nil(t, s.Current())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "📄 a.md (5 chars)", Describe(TextDocument{Name: "a.md", Text: "héllo"}))
	assert.Equal(t, "🖼️ b.jpg (image/jpeg, 2.0 KB)", Describe(Image{Name: "b.jpg", MIMEType: "image/jpeg", Data: make([]byte, 2048)}))
	assert.Equal(t, "No file or image currently in context.", Describe(nil))
}
