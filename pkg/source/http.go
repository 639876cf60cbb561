package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
	"github.com/matzehuels/treetop/pkg/observability"
)

// httpEntry is one cached HTTP response with its validators.
type httpEntry struct {
	Body         []byte `json:"body"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// fetchHTTP downloads a remote document with retry/backoff. When a
// cached copy with validators exists, the request goes out conditional
// (If-None-Match / If-Modified-Since) and a 304 serves the cached body.
func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	cacheKey := f.keyer.HTTPKey("source", rawURL)

	var cached httpEntry
	haveCached := false
	if data, hit, err := f.cache.Get(ctx, cacheKey); err == nil && hit {
		if err := json.Unmarshal(data, &cached); err == nil {
			haveCached = true
		}
	}

	var body []byte
	err := Retry(ctx, f.retryAttempts, f.retryDelay, func() error {
		var err error
		body, err = f.doRequest(ctx, rawURL, &cached, haveCached)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// doRequest performs one HTTP attempt. On 200 it updates the cached
// entry, on 304 it returns the cached body.
func (f *Fetcher) doRequest(ctx context.Context, rawURL string, cached *httpEntry, haveCached bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeInvalidSource, err, "bad url %s", rawURL)
	}
	req.Header.Set("Accept", "application/json")
	if haveCached {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	host, path := splitURL(rawURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)

	resp, err := f.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		return nil, &RetryableError{Err: tterrors.Wrap(tterrors.ErrCodeNetwork, err, "fetch %s", rawURL)}
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, 0)

	switch {
	case resp.StatusCode == http.StatusNotModified && haveCached:
		f.logger.Debug("not modified, serving cached copy", "url", rawURL)
		return cached.Body, nil

	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
		if err != nil {
			return nil, &RetryableError{Err: tterrors.Wrap(tterrors.ErrCodeNetwork, err, "read %s", rawURL)}
		}
		if len(body) > maxDocumentSize {
			return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document exceeds %d bytes", maxDocumentSize)
		}
		f.storeEntry(ctx, rawURL, httpEntry{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		})
		return body, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, tterrors.New(tterrors.ErrCodeNotFound, "document %s: %s", rawURL, resp.Status)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RetryableError{Err: tterrors.New(tterrors.ErrCodeRateLimited, "fetch %s: %s", rawURL, resp.Status)}

	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: tterrors.New(tterrors.ErrCodeNetwork, "fetch %s: %s", rawURL, resp.Status)}

	default:
		return nil, fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
}

func (f *Fetcher) storeEntry(ctx context.Context, rawURL string, entry httpEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	key := f.keyer.HTTPKey("source", rawURL)
	if err := f.cache.Set(ctx, key, data, cache.TTLHTTP); err != nil {
		f.logger.Debug("cache http response failed", "url", rawURL, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "http", len(data))
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, ""
	}
	return u.Host, u.Path
}
