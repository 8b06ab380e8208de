package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

const statsDocumentID = "stats"

type statsDocument struct {
	ID                 string `bson:"_id"`
	tiktok.StatsRecord `bson:",inline"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

// MongoStore keeps the record as a single upserted document.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// ConnectMongo opens a client for uri and returns a store over
// database.collection.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return NewMongoStore(client, database, collection), nil
}

func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Read(ctx context.Context) (tiktok.StatsRecord, bool, error) {
	var doc statsDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": statsDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return tiktok.StatsRecord{}, false, nil
		}
		return tiktok.StatsRecord{}, false, fmt.Errorf("find stats document: %w", err)
	}
	return doc.StatsRecord, true, nil
}

func (s *MongoStore) Write(ctx context.Context, rec tiktok.StatsRecord) error {
	doc := statsDocument{
		ID:          statsDocumentID,
		StatsRecord: rec,
		UpdatedAt:   time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": statsDocumentID}, doc, opts); err != nil {
		return fmt.Errorf("replace stats document: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
