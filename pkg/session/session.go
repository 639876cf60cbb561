// Package session persists per-document viewer state.
//
// The interactive viewer remembers which nodes a user collapsed and
// which layout settings they picked, keyed by the content hash of the
// document. Reopening the same document restores the previous view;
// editing the document yields a new hash and a fresh session.
//
// Sessions live as JSON files under the state directory
// (~/.local/state/treetop/sessions by default) and expire after
// DefaultTTL. Expired sessions are pruned lazily on read and in bulk by
// Cleanup.
package session

import (
	"time"

	"github.com/matzehuels/treetop/pkg/layout"
)

// DefaultTTL is how long a viewer session stays restorable.
const DefaultTTL = 30 * 24 * time.Hour

// Session is the saved viewer state for one document.
type Session struct {
	// DocHash is the content hash of the document this state belongs to.
	DocHash string `json:"doc_hash"`

	// Collapsed lists the node ids collapsed in the viewer.
	Collapsed []string `json:"collapsed,omitempty"`

	// CollapseEnabled records whether the visibility filter was on.
	CollapseEnabled bool `json:"collapse_enabled,omitempty"`

	// Settings are the layout settings in effect.
	Settings layout.Settings `json:"settings"`

	// UpdatedAt is the time of the last save.
	UpdatedAt time.Time `json:"updated_at"`

	// ExpiresAt is when the session stops being restorable.
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session for a document with the default TTL.
func New(docHash string) *Session {
	now := time.Now().UTC()
	return &Session{
		DocHash:   docHash,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
	}
}

// Touch refreshes the timestamps ahead of a save.
func (s *Session) Touch() {
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(DefaultTTL)
}

// IsExpired reports whether the session has exceeded its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
