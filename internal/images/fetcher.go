// Package images downloads remote images and re-encodes them for storage.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	_ "image/gif" // register decoders for the formats page servers use
	_ "image/png"

	"lector/internal/lector"
)

// Fetcher downloads an image and re-encodes it as JPEG at a fixed quality so
// archived blobs have a bounded size regardless of the source format.
type Fetcher struct {
	client  *http.Client
	quality int
}

// NewFetcher creates a Fetcher. quality is the JPEG re-encode quality (1-100).
func NewFetcher(timeout time.Duration, quality int) *Fetcher {
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		quality: quality,
	}
}

// Fetch downloads the image at url and returns the re-encoded JPEG bytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}
	req.Header.Set("User-Agent", "lector/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &lector.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &lector.HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding image from %s: %w", url, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: f.quality}); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases idle connections held by the fetcher's client.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}
