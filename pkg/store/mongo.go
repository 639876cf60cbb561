package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/treetop/pkg/cache"
	tterrors "github.com/matzehuels/treetop/pkg/errors"
)

// MongoStore persists documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the given URI and uses the documents
// collection of the named database. The connection is verified with a
// ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "ping mongo")
	}

	coll := client.Database(database).Collection("documents")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "ensure indexes")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save inserts a document or updates the existing one with the same name.
func (s *MongoStore) Save(ctx context.Context, name string, data []byte) (*Document, error) {
	if name == "" {
		return nil, tterrors.New(tterrors.ErrCodeInvalidInput, "document name must not be empty")
	}
	now := time.Now().UTC()
	hash := cache.Hash(data)

	update := bson.M{
		"$set": bson.M{
			"data":       data,
			"hash":       hash,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"name":       name,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc Document
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&doc)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "save document %q", name)
	}
	return &doc, nil
}

// Get returns the document with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

// GetByName returns the document with the given name.
func (s *MongoStore) GetByName(ctx context.Context, name string) (*Document, error) {
	return s.findOne(ctx, bson.M{"name": name}, name)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, ref string) (*Document, error) {
	var doc Document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(ref)
	}
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "query document %q", ref)
	}
	return &doc, nil
}

// List returns all documents ordered by name, without data payloads.
func (s *MongoStore) List(ctx context.Context) ([]*Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"data": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "list documents")
	}
	defer cur.Close(ctx)

	var docs []*Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, tterrors.Wrap(tterrors.ErrCodeStore, err, "decode documents")
	}
	return docs, nil
}

// Delete removes the document with the given id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return tterrors.Wrap(tterrors.ErrCodeStore, err, "delete document %q", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects from the server.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
