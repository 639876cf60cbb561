// Package source acquires JSON documents for the pipeline.
//
// A document reference is one of:
//
//   - "-" for standard input
//   - "http://..." or "https://..." for remote documents, fetched with
//     retry/backoff and conditional-GET caching
//   - "doc:<id-or-name>" for documents saved in the local store
//   - anything else is treated as a file path
//
// Fetch returns raw bytes; FetchDocument parses them into the
// order-preserving document model.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
	"github.com/matzehuels/treetop/pkg/jsondoc"
)

// DocPrefix marks references into the document store.
const DocPrefix = "doc:"

// maxDocumentSize bounds fetched documents (64 MiB). Larger inputs are
// rejected before parsing.
const maxDocumentSize = 64 << 20

// DocumentLookup resolves a store reference (id or name) to document
// bytes. Implemented by pkg/store.
type DocumentLookup interface {
	ResolveRef(ctx context.Context, ref string) ([]byte, error)
}

// Fetcher acquires documents from files, stdin, HTTP, and the store.
// The zero value is not usable; construct with NewFetcher.
type Fetcher struct {
	client *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	store  DocumentLookup
	logger *log.Logger

	retryAttempts int
	retryDelay    time.Duration

	// stdin is swappable for tests.
	stdin io.Reader
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithCache enables conditional-GET caching of HTTP responses.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(f *Fetcher) {
		f.cache = c
		f.keyer = k
	}
}

// WithStore enables doc:<ref> resolution.
func WithStore(s DocumentLookup) Option {
	return func(f *Fetcher) { f.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithStdin replaces the reader behind the "-" reference.
func WithStdin(r io.Reader) Option {
	return func(f *Fetcher) { f.stdin = r }
}

// WithRetry overrides the retry policy for HTTP fetches.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) {
		f.retryAttempts = attempts
		f.retryDelay = delay
	}
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:        &http.Client{Timeout: 30 * time.Second},
		cache:         cache.NewNullCache(),
		keyer:         cache.NewDefaultKeyer(),
		logger:        log.Default(),
		stdin:         os.Stdin,
		retryAttempts: 3,
		retryDelay:    time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the raw bytes of the referenced document.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case ref == "":
		return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "empty document reference")
	case ref == "-":
		data, err := io.ReadAll(io.LimitReader(f.stdin, maxDocumentSize+1))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if len(data) > maxDocumentSize {
			return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document exceeds %d bytes", maxDocumentSize)
		}
		return data, nil
	case strings.HasPrefix(ref, DocPrefix):
		if f.store == nil {
			return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "no document store configured for %q", ref)
		}
		return f.store.ResolveRef(ctx, strings.TrimPrefix(ref, DocPrefix))
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, tterrors.Wrap(tterrors.ErrCodeFileNotFound, err, "document %s", ref)
			}
			return nil, fmt.Errorf("read %s: %w", ref, err)
		}
		return data, nil
	}
}

// FetchDocument fetches and parses the referenced document.
func (f *Fetcher) FetchDocument(ctx context.Context, ref string) (*jsondoc.Value, error) {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	doc, err := jsondoc.Parse(data)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeInvalidInput, err, "parse document %s", ref)
	}
	return doc, nil
}
