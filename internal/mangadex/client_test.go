package mangadex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lector/internal/lector"
)

func newServerClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		BaseURL:    srv.URL,
		UploadsURL: "https://uploads.example.org",
	})
	t.Cleanup(c.Close)
	return c
}

func TestClient_SearchWorks(t *testing.T) {
	t.Run("shapes the query and parses the response", func(t *testing.T) {
		var gotQuery map[string][]string
		c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/manga" {
				t.Errorf("path = %q, want /manga", r.URL.Path)
			}
			gotQuery = r.URL.Query()
			w.Write([]byte(`{"data":[{"id":"w-1","attributes":{"title":{"en":"T"}}}]}`))
		}))

		works, err := c.SearchWorks(context.Background(), "one piece", 5)
		if err != nil {
			t.Fatalf("SearchWorks() error = %v", err)
		}
		if len(works) != 1 || works[0].ID != "w-1" {
			t.Fatalf("works = %+v", works)
		}

		if got := gotQuery["title"]; len(got) != 1 || got[0] != "one piece" {
			t.Errorf("title = %v", got)
		}
		if got := gotQuery["limit"]; len(got) != 1 || got[0] != "5" {
			t.Errorf("limit = %v", got)
		}
		ratings := gotQuery["contentRating[]"]
		if len(ratings) != 2 || ratings[0] != "safe" || ratings[1] != "suggestive" {
			t.Errorf("contentRating[] = %v", ratings)
		}
		if got := gotQuery["order[relevance]"]; len(got) != 1 || got[0] != "desc" {
			t.Errorf("order[relevance] = %v", got)
		}
	})

	t.Run("non-2xx becomes HTTPError", func(t *testing.T) {
		c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusTeapot)
		}))

		var httpErr *lector.HTTPError
		_, err := c.SearchWorks(context.Background(), "x", 1)
		if !errors.As(err, &httpErr) {
			t.Fatalf("error = %v, want HTTPError", err)
		}
		if httpErr.StatusCode != http.StatusTeapot {
			t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, http.StatusTeapot)
		}
	})

	t.Run("malformed body becomes ParseError", func(t *testing.T) {
		c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": "not an array"`))
		}))

		var parseErr *lector.ParseError
		_, err := c.SearchWorks(context.Background(), "x", 1)
		if !errors.As(err, &parseErr) {
			t.Fatalf("error = %v, want ParseError", err)
		}
	})

	t.Run("unreachable host becomes NetworkError", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c := NewClient(Options{BaseURL: url, UploadsURL: "https://u"})
		defer c.Close()

		var netErr *lector.NetworkError
		_, err := c.SearchWorks(context.Background(), "x", 1)
		if !errors.As(err, &netErr) {
			t.Fatalf("error = %v, want NetworkError", err)
		}
	})
}

func TestClient_GetWork(t *testing.T) {
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga/w-9" {
			t.Errorf("path = %q, want /manga/w-9", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":"w-9","attributes":{"title":{"ja":"作品"}}}}`))
	}))

	work, err := c.GetWork(context.Background(), "w-9")
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Title != "作品" {
		t.Errorf("Title = %q, want ja fallback", work.Title)
	}
}

func TestClient_Chapters(t *testing.T) {
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga/w-1/feed" {
			t.Errorf("path = %q, want /manga/w-1/feed", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q["translatedLanguage[]"]; len(got) != 1 || got[0] != "en" {
			t.Errorf("translatedLanguage[] = %v", got)
		}
		if got := q.Get("order[chapter]"); got != "asc" {
			t.Errorf("order[chapter] = %q", got)
		}
		w.Write([]byte(`{"data":[
			{"id":"c-1","attributes":{"chapter":"1","title":"","pages":3,"publishAt":""}},
			{"id":"c-2","attributes":{"chapter":"","title":"skipped"}}
		]}`))
	}))

	chapters, err := c.Chapters(context.Background(), "w-1", 100)
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 1 || chapters[0].ID != "c-1" {
		t.Fatalf("chapters = %+v", chapters)
	}
}

func TestClient_Pages(t *testing.T) {
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/at-home/server/c-1" {
			t.Errorf("path = %q, want /at-home/server/c-1", r.URL.Path)
		}
		w.Write([]byte(`{"baseUrl":"https://node","chapter":{"hash":"h","data":["a.jpg"]}}`))
	}))

	urls, err := c.Pages(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Pages() error = %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://node/data/h/a.jpg" {
		t.Fatalf("urls = %v", urls)
	}
}
