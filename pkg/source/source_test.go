package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
)

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(`{"name":"x"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher()
	data, err := f.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"name":"x"}` {
		t.Errorf("data = %s", data)
	}
}

func TestFetchMissingFile(t *testing.T) {
	f := NewFetcher()
	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if !tterrors.Is(err, tterrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFetchStdin(t *testing.T) {
	f := NewFetcher(WithStdin(strings.NewReader(`{"a":1}`)))
	data, err := f.Fetch(context.Background(), "-")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("data = %s", data)
	}
}

func TestFetchEmptyRef(t *testing.T) {
	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), ""); !tterrors.Is(err, tterrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestFetchStoreRefWithoutStore(t *testing.T) {
	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), "doc:abc"); !tterrors.Is(err, tterrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

type fakeStore struct{ data map[string][]byte }

func (s *fakeStore) ResolveRef(_ context.Context, ref string) ([]byte, error) {
	if d, ok := s.data[ref]; ok {
		return d, nil
	}
	return nil, tterrors.New(tterrors.ErrCodeDocumentNotFound, "document %q", ref)
}

func TestFetchStoreRef(t *testing.T) {
	f := NewFetcher(WithStore(&fakeStore{data: map[string][]byte{"abc": []byte(`{}`)}}))
	data, err := f.Fetch(context.Background(), "doc:abc")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("data = %s", data)
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`{"remote":true}`))
	}))
	defer srv.Close()

	f := NewFetcher(WithRetry(1, time.Millisecond))
	data, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"remote":true}` {
		t.Errorf("data = %s", data)
	}
}

func TestFetchHTTPConditionalGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`{"v":1}`))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(WithCache(c, cache.NewDefaultKeyer()), WithRetry(1, time.Millisecond))

	first, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if string(first) != string(second) {
		t.Error("304 should serve the cached body")
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestFetchHTTPRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewFetcher(WithRetry(3, time.Millisecond))
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("Fetch should recover after retry: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}
}

func TestFetchHTTPNotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(WithRetry(3, time.Millisecond))
	_, err := f.Fetch(context.Background(), srv.URL)
	if !tterrors.Is(err, tterrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (no retry)", hits.Load())
	}
}

func TestFetchDocumentParses(t *testing.T) {
	f := NewFetcher(WithStdin(strings.NewReader(`{"name":"x","n":2}`)))
	doc, err := f.FetchDocument(context.Background(), "-")
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if got, ok := doc.Field("name"); !ok || got.Str != "x" {
		t.Errorf("doc.name = %v", got)
	}

	bad := NewFetcher(WithStdin(strings.NewReader(`not json`)))
	if _, err := bad.FetchDocument(context.Background(), "-"); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return errors.New("permanent")
	})
	if err == nil || calls != 1 {
		t.Errorf("calls = %d, err = %v; permanent errors should not retry", calls, err)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
