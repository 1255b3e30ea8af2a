package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/patrickmn/go-cache"
)

const (
	sniffBytes      = 3072
	probeCacheTTL   = 10 * time.Minute
	probeCacheSweep = 20 * time.Minute
	defaultProbeTTL = 10 * time.Second
)

// ErrNotImage is returned when a URL does not serve image content.
var ErrNotImage = errors.New("not an image")

// ImageInfo describes a reachable image.
type ImageInfo struct {
	URL      string
	MIMEType string
}

// ImageLoader checks that an image URL can be displayed.
type ImageLoader interface {
	Probe(ctx context.Context, url string) (ImageInfo, error)
}

// HTTPImageLoader probes image URLs over HTTP and remembers the outcome.
type HTTPImageLoader struct {
	client *http.Client
	cache  *cache.Cache
}

type probeResult struct {
	info ImageInfo
	err  error
}

// NewHTTPImageLoader creates a loader. A nil client gets a short-timeout default.
func NewHTTPImageLoader(client *http.Client) *HTTPImageLoader {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTTL}
	}
	return &HTTPImageLoader{
		client: client,
		cache:  cache.New(probeCacheTTL, probeCacheSweep),
	}
}

// Probe fetches the head of the resource and sniffs its type.
func (l *HTTPImageLoader) Probe(ctx context.Context, url string) (ImageInfo, error) {
	if cached, ok := l.cache.Get(url); ok {
		res := cached.(probeResult)
		return res.info, res.err
	}

	info, err := l.probe(ctx, url)
	// Cancellation says nothing about the URL itself.
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		l.cache.Set(url, probeResult{info: info, err: err}, cache.DefaultExpiration)
	}
	return info, err
}

func (l *HTTPImageLoader) probe(ctx context.Context, url string) (ImageInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("invalid image url: %w", err)
	}
	req.Header.Set("User-Agent", "bolt-agent-go/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return ImageInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ImageInfo{}, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffBytes))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to read image: %w", err)
	}

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}

	return ImageInfo{URL: url, MIMEType: mt.String()}, nil
}
