package dining

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/neexbeast/dininguru/internal/imagecache"
)

const maxImageBytes = 5 << 20

// ErrImageTooLarge is returned for images over the 5 MiB limit. They are
// never cached.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// ImageLoader returns venue images, serving repeats from a bounded cache.
type ImageLoader struct {
	client *http.Client
	cache  imagecache.Cache
}

// NewImageLoader constructs an ImageLoader backed by cache.
func NewImageLoader(cache imagecache.Cache) *ImageLoader {
	return &ImageLoader{client: newHTTPClient(), cache: cache}
}

// Load returns the image at rawURL. Only successful downloads are cached.
func (l *ImageLoader) Load(ctx context.Context, rawURL string) ([]byte, error) {
	if img, ok := l.cache.Get(rawURL); ok {
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode}
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", rawURL, err)
	}
	if len(img) > maxImageBytes {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrImageTooLarge)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrNoData)
	}

	l.cache.Add(rawURL, img)
	return img, nil
}
