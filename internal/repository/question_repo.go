package repository

import (
	"context"
	"time"

	"tably-backend/internal/database"
	"tably-backend/internal/models"
	"tably-backend/internal/questions"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type QuestionRepo struct {
	collection *mongo.Collection
}

var _ questions.Store = (*QuestionRepo)(nil)

func NewQuestionRepo() *QuestionRepo {
	return &QuestionRepo{
		collection: database.GetCollection("questions"),
	}
}

func (r *QuestionRepo) ListActive(ctx context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	// _id breaks order ties so two questions sharing an order value still
	// come back in a stable sequence.
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"venue_id": venueID, "active": true}, opts)
	if err != nil {
		return nil, err
	}
	result := []models.Question{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *QuestionRepo) ListInactive(ctx context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"venue_id": venueID, "active": false})
	if err != nil {
		return nil, err
	}
	result := []models.Question{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *QuestionRepo) Create(ctx context.Context, q *models.Question) error {
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	result, err := r.collection.InsertOne(ctx, q)
	if err != nil {
		return err
	}
	q.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// SetActive filters on venue_id as well as _id, so a question ID from another
// venue matches nothing instead of being silently mutated.
func (r *QuestionRepo) SetActive(ctx context.Context, venueID, id bson.ObjectID, active bool, order int) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "venue_id": venueID}, bson.M{
		"$set": bson.M{
			"active":     active,
			"order":      order,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return questions.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepo) Update(ctx context.Context, venueID, id bson.ObjectID, fields questions.UpdateFields) error {
	set := bson.M{"updated_at": time.Now()}
	if fields.Text != nil {
		set["question"] = *fields.Text
	}
	if fields.Category != nil {
		set["category"] = *fields.Category
	}
	if fields.Tags != nil {
		set["follow_up_tags"] = fields.Tags
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "venue_id": venueID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return questions.ErrQuestionNotFound
	}
	return nil
}

// Reorder writes order=index+1 for each id in sequence. A failing write stops
// the batch; the earlier writes stay applied, so callers must re-fetch the
// active list instead of trusting their local ordering.
func (r *QuestionRepo) Reorder(ctx context.Context, venueID bson.ObjectID, ids []bson.ObjectID) error {
	for i, id := range ids {
		_, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": id, "venue_id": venueID},
			bson.M{"$set": bson.M{"order": i + 1, "updated_at": time.Now()}},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *QuestionRepo) ExistsActiveText(ctx context.Context, venueID bson.ObjectID, text string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"venue_id": venueID,
		"active":   true,
		"question": text,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceWithNew archives the victim and inserts the new question inside one
// transaction, so a failure never leaves the venue a question short.
func (r *QuestionRepo) ReplaceWithNew(ctx context.Context, venueID, victimID bson.ObjectID, q *models.Question) error {
	return r.inTransaction(ctx, func(ctx context.Context) error {
		if err := r.SetActive(ctx, venueID, victimID, false, 0); err != nil {
			return err
		}
		return r.Create(ctx, q)
	})
}

// ReplaceWithArchived archives the victim and re-activates the candidate
// inside one transaction.
func (r *QuestionRepo) ReplaceWithArchived(ctx context.Context, venueID, victimID, candidateID bson.ObjectID, order int) error {
	return r.inTransaction(ctx, func(ctx context.Context) error {
		if err := r.SetActive(ctx, venueID, victimID, false, 0); err != nil {
			return err
		}
		return r.SetActive(ctx, venueID, candidateID, true, order)
	})
}

func (r *QuestionRepo) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// EnsureIndexes creates necessary indexes for the questions collection.
// The partial unique index backs the app-level duplicate check: even racing
// writers cannot create two active questions with the same text for a venue.
func (r *QuestionRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "venue_id", Value: 1}, {Key: "active", Value: 1}, {Key: "order", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "venue_id", Value: 1}, {Key: "question", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
