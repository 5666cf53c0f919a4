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

type StaffInviteRepo struct {
	collection *mongo.Collection
}

func NewStaffInviteRepo() *StaffInviteRepo {
	return &StaffInviteRepo{
		collection: database.GetCollection("staff_invites"),
	}
}

func (r *StaffInviteRepo) Create(ctx context.Context, invite *models.StaffInvite) error {
	invite.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, invite)
	if err != nil {
		return err
	}
	invite.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

func (r *StaffInviteRepo) FindByToken(ctx context.Context, token string) (*models.StaffInvite, error) {
	var invite models.StaffInvite
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&invite)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (r *StaffInviteRepo) MarkAccepted(ctx context.Context, token string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, bson.M{
		"$set": bson.M{"is_accepted": true},
	})
	return err
}

// CountRecentByEmail counts how many invites were created for an email in the
// given duration. Used for rate limiting.
func (r *StaffInviteRepo) CountRecentByEmail(ctx context.Context, email string, duration time.Duration) (int64, error) {
	since := time.Now().Add(-duration)
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"email":      email,
		"created_at": bson.M{"$gte": since},
	})
	return count, err
}

// EnsureIndexes creates necessary indexes for the staff_invites collection
func (r *StaffInviteRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index — auto-delete expired invites
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
