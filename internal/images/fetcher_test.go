package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func servePNG(t *testing.T) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("re-encodes a png as jpeg", func(t *testing.T) {
		srv := servePNG(t)
		f := NewFetcher(5*time.Second, 70)
		defer f.Close()

		data, err := f.Fetch(context.Background(), srv.URL+"/page.png")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		decoded, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("result is not valid JPEG: %v", err)
		}
		if b := decoded.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
			t.Errorf("bounds = %v, want 4x4", b)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		t.Cleanup(srv.Close)

		f := NewFetcher(5*time.Second, 70)
		defer f.Close()

		if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
			t.Fatal("expected error for 404 response")
		}
	})

	t.Run("non-image body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not an image</html>"))
		}))
		t.Cleanup(srv.Close)

		f := NewFetcher(5*time.Second, 70)
		defer f.Close()

		if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(0, 0)
	defer f.Close()

	if f.quality != 70 {
		t.Errorf("quality = %d, want 70", f.quality)
	}
	if f.client.Timeout == 0 {
		t.Error("timeout not defaulted")
	}
}
