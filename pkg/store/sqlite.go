package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
)

// SQLiteStore persists documents in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	data       BLOB NOT NULL,
	hash       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
`

// NewSQLiteStore opens (or creates) the database at path and migrates
// the schema. The connection pool is capped at one connection: the
// modernc driver serializes writes anyway, and a single connection keeps
// transaction semantics simple for CLI usage.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts a document or updates the existing one with the same name.
func (s *SQLiteStore) Save(ctx context.Context, name string, data []byte) (*Document, error) {
	if name == "" {
		return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document name must not be empty")
	}
	now := time.Now().UTC()
	doc := &Document{
		Name:      name,
		Data:      data,
		Hash:      cache.Hash(data),
		UpdatedAt: now,
	}

	existing, err := s.GetByName(ctx, name)
	switch {
	case err == nil:
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
		_, err = s.db.ExecContext(ctx,
			`UPDATE documents SET data = ?, hash = ?, updated_at = ? WHERE id = ?`,
			doc.Data, doc.Hash, now.Unix(), doc.ID)
	case tterrors.Is(err, tterrors.ErrCodeDocumentNotFound):
		doc.ID = uuid.NewString()
		doc.CreatedAt = now
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO documents (id, name, data, hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Name, doc.Data, doc.Hash, now.Unix(), now.Unix())
	}
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "save document %q", name)
	}
	return doc, nil
}

// Get returns the document with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	return s.queryOne(ctx, `SELECT id, name, data, hash, created_at, updated_at FROM documents WHERE id = ?`, id)
}

// GetByName returns the document with the given name.
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (*Document, error) {
	return s.queryOne(ctx, `SELECT id, name, data, hash, created_at, updated_at FROM documents WHERE name = ?`, name)
}

func (s *SQLiteStore) queryOne(ctx context.Context, query, arg string) (*Document, error) {
	var doc Document
	var created, updated int64
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&doc.ID, &doc.Name, &doc.Data, &doc.Hash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(arg)
	}
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "query document %q", arg)
	}
	doc.CreatedAt = time.Unix(created, 0).UTC()
	doc.UpdatedAt = time.Unix(updated, 0).UTC()
	return &doc, nil
}

// List returns all documents ordered by name, without data payloads.
func (s *SQLiteStore) List(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, hash, created_at, updated_at FROM documents ORDER BY name`)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "list documents")
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		var created, updated int64
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Hash, &created, &updated); err != nil {
			return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "scan document")
		}
		doc.CreatedAt = time.Unix(created, 0).UTC()
		doc.UpdatedAt = time.Unix(updated, 0).UTC()
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "list documents")
	}
	return docs, nil
}

// Delete removes the document with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return tterrors.Wrap(tterrors.ErrCodeStore, err, "delete document %q", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
