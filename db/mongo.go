package db

import (
	"context"
	"fmt"
	"time"

	"voice-detection/models"
	"voice-detection/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoKeyStore struct {
	client *mongo.Client
	keys   *mongo.Collection
}

// keyDocument is the BSON shape of a stored key. Mongo deployments identify
// keys by the key string itself, so the numeric ID stays zero.
type keyDocument struct {
	Key        string     `bson:"key"`
	Owner      string     `bson:"owner"`
	CreatedAt  time.Time  `bson:"created_at"`
	Revoked    bool       `bson:"revoked"`
	LastUsedAt *time.Time `bson:"last_used_at,omitempty"`
}

func NewMongoKeyStore(uri, dbName string) (*MongoKeyStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error reaching MongoDB: %s", err)
	}

	keys := client.Database(dbName).Collection("api_keys")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := keys.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("error creating key index: %s", err)
	}

	return &MongoKeyStore{client: client, keys: keys}, nil
}

func (s *MongoKeyStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoKeyStore) CreateKey(owner string) (models.APIKey, error) {
	doc := keyDocument{
		Key:       utils.GenerateAPIKey(),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.keys.InsertOne(context.Background(), doc); err != nil {
		return models.APIKey{}, fmt.Errorf("failed to store key: %v", err)
	}

	return models.APIKey{
		Key:       doc.Key,
		Owner:     doc.Owner,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *MongoKeyStore) ValidateKey(key string) (bool, error) {
	ctx := context.Background()

	var doc keyDocument
	err := s.keys.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, fmt.Errorf("error looking up key: %s", err)
	}
	if doc.Revoked {
		return false, nil
	}

	update := bson.M{"$set": bson.M{"last_used_at": time.Now().UTC()}}
	if _, err := s.keys.UpdateOne(ctx, bson.M{"key": key}, update); err != nil {
		return false, fmt.Errorf("error stamping key use: %s", err)
	}

	return true, nil
}

func (s *MongoKeyStore) RevokeKey(key string) error {
	result, err := s.keys.UpdateOne(
		context.Background(),
		bson.M{"key": key},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("error revoking key: %s", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("key not found")
	}

	return nil
}

func (s *MongoKeyStore) ListKeys() ([]models.APIKey, error) {
	ctx := context.Background()

	cursor, err := s.keys.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("error querying keys: %s", err)
	}
	defer cursor.Close(ctx)

	var docs []keyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error reading keys: %s", err)
	}

	keys := make([]models.APIKey, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, models.APIKey{
			Key:        doc.Key,
			Owner:      doc.Owner,
			CreatedAt:  doc.CreatedAt,
			Revoked:    doc.Revoked,
			LastUsedAt: doc.LastUsedAt,
		})
	}

	return keys, nil
}

func (s *MongoKeyStore) SeedKeys(keys []string) error {
	ctx := context.Background()

	for _, key := range keys {
		filter := bson.M{"key": key}
		update := bson.M{"$setOnInsert": keyDocument{
			Key:       key,
			Owner:     "seed",
			CreatedAt: time.Now().UTC(),
		}}
		if _, err := s.keys.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("error seeding key: %s", err)
		}
	}

	return nil
}
