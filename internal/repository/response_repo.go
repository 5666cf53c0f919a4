package repository

import (
	"context"
	"time"

	"tably-backend/internal/database"
	"tably-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ResponseRepo struct {
	collection *mongo.Collection
}

func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{
		collection: database.GetCollection("responses"),
	}
}

func (r *ResponseRepo) Create(ctx context.Context, response *models.Response) error {
	response.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return err
	}
	response.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// FindByIdempotencyKey checks if a response with this key already exists (duplicate prevention)
func (r *ResponseRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Response, error) {
	var response models.Response
	err := r.collection.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&response)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &response, nil
}

// EnsureIndexes creates necessary indexes for the responses collection
func (r *ResponseRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "venue_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
