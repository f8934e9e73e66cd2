package archive

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const runsCollection = "query_runs"

type MongoArchiver struct {
	client *mongo.Client
	runs   *mongo.Collection
}

func NewMongoArchiver(ctx context.Context, uri, database string) (*MongoArchiver, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	runs := client.Database(database).Collection(runsCollection)
	_, err = runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject", Value: 1}, {Key: "started_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("index %s: %w", runsCollection, err)
	}
	return &MongoArchiver{client: client, runs: runs}, nil
}

func (ma *MongoArchiver) Record(ctx context.Context, rec RunRecord) error {
	if _, err := ma.runs.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("archive run %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the latest records for subject, newest first.
func (ma *MongoArchiver) Recent(ctx context.Context, subject string, limit int64) ([]RunRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(limit)
	cursor, err := ma.runs.Find(ctx, bson.M{"subject": subject}, opts)
	if err != nil {
		return nil, err
	}
	var out []RunRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (ma *MongoArchiver) Close(ctx context.Context) error {
	return ma.client.Disconnect(ctx)
}
