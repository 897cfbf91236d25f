package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoBackend keeps one Mongo document per key; the JSON payload is stored
// verbatim so every backend decodes the same bytes.
type MongoBackend struct {
	col *mongo.Collection
}

func NewMongoBackend(col *mongo.Collection) *MongoBackend {
	return &MongoBackend{col: col}
}

func (b *MongoBackend) Resolve(key string) string {
	return b.col.Database().Name() + "." + b.col.Name() + "/" + key
}

func (b *MongoBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoDocument
	if err := b.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(doc.Payload), true, nil
}

func (b *MongoBackend) Save(ctx context.Context, key string, data []byte) error {
	doc := mongoDocument{Key: key, Payload: string(data), UpdatedAt: time.Now().UTC()}
	_, err := b.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}
