// Package cache provides content-addressed caching for pipeline stages.
//
// The pipeline caches three kinds of results: normalized graphs (keyed
// by document hash and normalize options), laid-out graphs (keyed by
// graph hash and layout settings), and rendered artifacts (keyed by
// layout hash and format). HTTP responses fetched by pkg/source are
// cached under a separate namespace for conditional requests.
//
// Two backends ship: FileCache for the CLI (sharded files under the
// user cache directory) and RedisCache for server deployments. NullCache
// disables caching entirely.
package cache

import (
	"context"
	"time"
)

// TTLs per cached result kind. Graphs and layouts are pure functions of
// their inputs, so the TTLs mainly bound disk growth; HTTP entries turn
// over faster because the remote document can change.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
	TTLHTTP     = time.Hour
)

// Cache is the storage interface shared by all backends.
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GraphKeyOpts are the normalize options that change a graph result.
type GraphKeyOpts struct {
	TitleKeys               []string
	HiddenKeys              []string
	MaxPreviewAttrs         int
	MaxDepth                int
	ScalarArraysAsAttribute bool
}

// LayoutKeyOpts are the inputs that change a layout result beyond the
// graph itself: settings, the collapsed set, and measured sizes.
type LayoutKeyOpts struct {
	Direction     string
	Align         string
	LinkStyle     string
	CurveTension  float64
	LineThreshold float64
	LevelGap      float64
	SiblingGap    float64
	RootGap       float64
	CollapsedHash string
	SizesHash     string
}

// ArtifactKeyOpts are the render inputs that change an artifact.
type ArtifactKeyOpts struct {
	Format string
	Theme  string
	Scale  float64
}

// Keyer builds cache keys for the pipeline's cacheable results.
// Implementations must be deterministic: identical inputs yield the
// identical key.
type Keyer interface {
	HTTPKey(namespace, url string) string
	GraphKey(docHash string, opts GraphKeyOpts) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into prefix:sha256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for a cached HTTP response.
func (k *DefaultKeyer) HTTPKey(namespace, url string) string {
	return hashKey("http", namespace, url)
}

// GraphKey generates a key for a normalized graph.
func (k *DefaultKeyer) GraphKey(docHash string, opts GraphKeyOpts) string {
	return hashKey("graph", docHash, opts)
}

// LayoutKey generates a key for a laid-out graph.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
