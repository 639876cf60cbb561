// Package store persists named JSON documents.
//
// Two backends implement the Store interface: SQLiteStore for the CLI
// (a single local file, schema migrated on open) and MongoStore for
// server deployments. Documents are saved by name; saving an existing
// name updates the stored data in place and keeps the document id.
package store

import (
	"context"
	"time"

	tterrors "github.com/matzehuels/treetop/pkg/errors"
)

// Document is one stored JSON document.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Data      []byte    `json:"data,omitempty" bson:"data"`
	Hash      string    `json:"hash" bson:"hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the persistence interface shared by all backends.
// Get and GetByName return a DOCUMENT_NOT_FOUND coded error for unknown
// documents; List returns documents without their data payloads.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (*Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	GetByName(ctx context.Context, name string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Resolver adapts a Store to document-reference lookups: a ref is tried
// as an id first, then as a name. Satisfies source.DocumentLookup.
type Resolver struct {
	Store Store
}

// ResolveRef returns the data of the document the ref names.
func (r Resolver) ResolveRef(ctx context.Context, ref string) ([]byte, error) {
	if doc, err := r.Store.Get(ctx, ref); err == nil {
		return doc.Data, nil
	}
	doc, err := r.Store.GetByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func notFound(ref string) error {
	return tterrors.New(tterrors.ErrCodeDocumentNotFound, "document %q", ref)
}
