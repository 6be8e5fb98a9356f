// Package mangadex implements the remote catalog gateway against the
// MangaDex HTTP API. Responses are parsed into typed records at this
// boundary; raw JSON never leaves the package.
package mangadex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"lector/internal/lector"
	"lector/internal/model"
)

const userAgent = "lector/1.0"

// Options configures the gateway client.
type Options struct {
	BaseURL    string        // catalog API root, e.g. https://api.mangadex.org
	UploadsURL string        // cover image host, e.g. https://uploads.mangadex.org
	Timeout    time.Duration // per-request timeout
	RetryMax   int           // bounded automatic retries, connection failures only
	MaxPerHost int           // connection cap per remote host
}

// Client is the remote catalog gateway. The underlying transport is shared
// across calls and released with Close when the session ends.
type Client struct {
	http       *retryablehttp.Client
	transport  *http.Transport
	baseURL    string
	uploadsURL string
}

// NewClient creates a gateway client. Retries happen only in the transport
// layer and only for connection failures; HTTP error statuses are returned
// to the caller unretried.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.MaxPerHost <= 0 {
		opts.MaxPerHost = 5
	}

	transport := &http.Transport{
		MaxConnsPerHost:     opts.MaxPerHost,
		MaxIdleConnsPerHost: opts.MaxPerHost,
		IdleConnTimeout:     5 * time.Minute,
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Transport: transport, Timeout: opts.Timeout}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Retry connection failures only; non-2xx statuses are the
		// caller's problem.
		return err != nil, nil
	}

	return &Client{
		http:       rc,
		transport:  transport,
		baseURL:    opts.BaseURL,
		uploadsURL: opts.UploadsURL,
	}
}

// Close releases the shared connection pool.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// SearchWorks queries the catalog by title, most relevant first.
func (c *Client) SearchWorks(ctx context.Context, query string, limit int) ([]model.Work, error) {
	q := url.Values{}
	q.Set("title", query)
	q.Set("limit", fmt.Sprint(limit))
	q.Add("includes[]", "cover_art")
	q.Add("contentRating[]", "safe")
	q.Add("contentRating[]", "suggestive")
	q.Set("order[relevance]", "desc")

	body, err := c.get(ctx, "/manga", q)
	if err != nil {
		return nil, err
	}
	return c.parseWorks(body)
}

// PopularWorks lists the most-followed works that have readable chapters.
func (c *Client) PopularWorks(ctx context.Context, limit int) ([]model.Work, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Add("includes[]", "cover_art")
	q.Set("order[followedCount]", "desc")
	q.Add("contentRating[]", "safe")
	q.Add("contentRating[]", "suggestive")
	q.Set("hasAvailableChapters", "true")

	body, err := c.get(ctx, "/manga", q)
	if err != nil {
		return nil, err
	}
	return c.parseWorks(body)
}

// GetWork fetches a single work by its catalog identifier.
func (c *Client) GetWork(ctx context.Context, workID string) (*model.Work, error) {
	q := url.Values{}
	q.Add("includes[]", "cover_art")

	body, err := c.get(ctx, "/manga/"+workID, q)
	if err != nil {
		return nil, err
	}
	return c.parseWork(body)
}

// Chapters returns the English chapter feed for a work in ascending chapter
// order. Records without a usable chapter number are dropped before they
// reach the caller.
func (c *Client) Chapters(ctx context.Context, workID string, limit int) ([]model.Chapter, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("order[chapter]", "asc")
	q.Add("translatedLanguage[]", "en")
	q.Add("includes[]", "scanlation_group")
	q.Add("contentRating[]", "safe")
	q.Add("contentRating[]", "suggestive")

	body, err := c.get(ctx, "/manga/"+workID+"/feed", q)
	if err != nil {
		return nil, err
	}
	return parseChapters(body, workID)
}

// Pages resolves the image URLs for a chapter via the at-home server,
// preferring the data-saver list when the response carries one.
func (c *Client) Pages(ctx context.Context, chapterID string) ([]string, error) {
	body, err := c.get(ctx, "/at-home/server/"+chapterID, nil)
	if err != nil {
		return nil, err
	}
	return parsePages(body)
}

// get issues a GET against the catalog API and returns the response body.
// Failures map onto the gateway error taxonomy: transport problems become
// NetworkError, non-2xx statuses become HTTPError.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &lector.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &lector.HTTPError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &lector.NetworkError{Err: err}
	}
	return body, nil
}
