package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	fail map[string]bool
}

func (s stubLoader) Probe(_ context.Context, url string) (ImageInfo, error) {
	if s.fail[url] {
		return ImageInfo{}, errors.New("boom")
	}
	return ImageInfo{URL: url, MIMEType: "image/jpeg"}, nil
}

func TestFailedImageText(t *testing.T) {
	assert.Equal(t, "Could not load: https://example.com/images/abc...", FailedImageText("https://example.com/images/abcdefgh.jpg"))
	assert.Equal(t, "Could not load: https://x.io/a.png...", FailedImageText("https://x.io/a.png"))
}

func TestSearchMarkdown(t *testing.T) {
	md := SearchMarkdown("Bolt", []SearchLink{{Term: "Kyoto temple", URL: SearchURL("Kyoto temple")}})
	assert.Equal(t, "---\n**Bolt suggests searching for images like:**\n- [Kyoto temple](https://www.google.com/search?tbm=isch&q=Kyoto+temple)", md)

	md = SearchMarkdown("Bolt", []SearchLink{{Term: `Tokyo [night] \ skyline`, URL: SearchURL("Tokyo night")}})
	assert.Contains(t, md, `- [Tokyo \[night\] \\ skyline](https://www.google.com/search?tbm=isch&q=Tokyo+night)`)
}

func TestTerminalFailedImageDoesNotAbort(t *testing.T) {
	bad := "https://broken.example/missing.jpg"
	term := NewTerminal("Bolt", stubLoader{fail: map[string]bool{bad: true}}, WithoutMarkdown())

	out := term.Render(context.Background(), Plan{
		DisplayText: "Here is Kyoto.",
		Images:      []Image{{URL: bad, Caption: "Bolt's Visual Suggestion!"}},
		SearchLinks: []SearchLink{{Term: "Kyoto temple", URL: SearchURL("Kyoto temple")}},
	})

	assert.Contains(t, out, "Here is Kyoto.")
	assert.Contains(t, out, "Could not load: https://broken.example/missing...")
	assert.Contains(t, out, "Bolt suggests searching for images like:")
	assert.Contains(t, out, "Kyoto+temple")
}

func TestTerminalTwoImagesSideBySide(t *testing.T) {
	term := NewTerminal("Bolt", stubLoader{}, WithoutMarkdown(), WithWidth(80))

	out := term.Render(context.Background(), Plan{
		Images: []Image{
			{URL: "https://a.example/1.jpg", Caption: "Visual 1"},
			{URL: "https://a.example/2.jpg", Caption: "Visual 2"},
		},
	})

	require.Contains(t, out, "Visual 1")
	require.Contains(t, out, "Visual 2")
	// Joined horizontally, both captions share the same row.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Visual 1") {
			assert.Contains(t, line, "Visual 2")
		}
	}
}

func TestTerminalMarkdownText(t *testing.T) {
	term := NewTerminal("Bolt", nil)
	out := term.Render(context.Background(), Plan{DisplayText: "Hello **traveller**"})
	assert.Contains(t, out, "traveller")
}

func TestHTTPImageLoaderProbeAndCache(t *testing.T) {
	var hits atomic.Int32
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(png)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>not an image</body></html>")
	})
	mux.HandleFunc("/gone.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	loader := NewHTTPImageLoader(srv.Client())
	ctx := context.Background()

	info, err := loader.Probe(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.MIMEType)

	_, err = loader.Probe(ctx, srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = loader.Probe(ctx, srv.URL+"/page")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = loader.Probe(ctx, srv.URL+"/gone.png")
	assert.Error(t, err)
}
