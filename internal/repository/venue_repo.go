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

type VenueRepo struct {
	collection *mongo.Collection
}

func NewVenueRepo() *VenueRepo {
	return &VenueRepo{
		collection: database.GetCollection("venues"),
	}
}

func (r *VenueRepo) Create(ctx context.Context, venue *models.Venue) error {
	venue.CreatedAt = time.Now()
	venue.UpdatedAt = venue.CreatedAt
	if venue.StaffIDs == nil {
		venue.StaffIDs = []bson.ObjectID{}
	}
	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return err
	}
	venue.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *VenueRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Venue, error) {
	var venue models.Venue
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&venue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &venue, nil
}

func (r *VenueRepo) FindBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	var venue models.Venue
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&venue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &venue, nil
}

// ListByMember returns every venue the user owns or staffs.
func (r *VenueRepo) ListByMember(ctx context.Context, userID bson.ObjectID) ([]models.Venue, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"$or": []bson.M{
			{"owner_id": userID},
			{"staff_ids": userID},
		},
	})
	if err != nil {
		return nil, err
	}
	result := []models.Venue{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *VenueRepo) AddStaff(ctx context.Context, venueID, userID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": venueID}, bson.M{
		"$addToSet": bson.M{"staff_ids": userID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	return err
}

// EnsureIndexes creates necessary indexes for the venues collection
func (r *VenueRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
