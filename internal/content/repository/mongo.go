package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDocument is the stored shape. The body is kept as JSON text rather
// than BSON so it comes back exactly as it was written.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Body      string    `bson:"body"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (m mongoDocument) toDocument() *content.Document {
	return &content.Document{
		ID:        m.ID,
		Kind:      m.Kind,
		Body:      json.RawMessage(m.Body),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MongoRepo implements Store with two collections: one for documents and one
// for API key bindings keyed by the key itself.
type MongoRepo struct {
	docs *mongo.Collection
	keys *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	keys := db.Collection("api_keys")
	// bindings are looked up by document when rebinding or auditing
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "documentId", Value: 1}}}
	keys.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{docs: db.Collection("documents"), keys: keys}
}

func (m *MongoRepo) CreateDocument(ctx context.Context, doc *content.Document) (string, error) {
	prepareNew(doc)
	row := mongoDocument{
		ID: doc.ID, Kind: doc.Kind, Body: string(doc.Body), Version: doc.Version,
		CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}
	if _, err := m.docs.InsertOne(ctx, row); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

func (m *MongoRepo) BindKey(ctx context.Context, key, documentID string) error {
	if _, err := m.GetDocument(ctx, documentID); err != nil {
		return err
	}
	opts := options.Update().SetUpsert(true)
	update := bson.M{
		"$set":         bson.M{"documentId": documentID},
		"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
	}
	if _, err := m.keys.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("bind key: %w", err)
	}
	return nil
}

func (m *MongoRepo) FindByKey(ctx context.Context, key string) (*content.Document, error) {
	var k content.APIKey
	if err := m.keys.FindOne(ctx, bson.M{"_id": key}).Decode(&k); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m.GetDocument(ctx, k.DocumentID)
}

func (m *MongoRepo) GetDocument(ctx context.Context, id string) (*content.Document, error) {
	var row mongoDocument
	if err := m.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toDocument(), nil
}

func (m *MongoRepo) ReplaceBody(ctx context.Context, id string, expectedVersion int64, body json.RawMessage) (*content.Document, error) {
	filter := bson.M{"_id": id, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{
			"body":      string(body),
			"kind":      string(collection.KindOf(body)),
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var row mongoDocument
	if err := m.docs.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, gerr := m.GetDocument(ctx, id); gerr != nil {
				return nil, gerr
			}
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("replace body: %w", err)
	}
	return row.toDocument(), nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.docs.Database().Client().Ping(ctx, nil)
}

func (m *MongoRepo) Close(ctx context.Context) error {
	return m.docs.Database().Client().Disconnect(ctx)
}
