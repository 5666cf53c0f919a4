package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Answer is one customer's rating of a single active question.
// Follow-up tags are only recorded for low ratings (<= 3).
type Answer struct {
	QuestionID   bson.ObjectID `bson:"question_id" json:"question_id"`
	Rating       int           `bson:"rating" json:"rating"`
	FollowUpTags []string      `bson:"follow_up_tags,omitempty" json:"follow_up_tags,omitempty"`
	Comment      string        `bson:"comment,omitempty" json:"comment,omitempty"`
}

type Response struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	VenueID        bson.ObjectID `bson:"venue_id" json:"venue_id"`
	Answers        []Answer      `bson:"answers" json:"answers"`
	IdempotencyKey string        `bson:"idempotency_key" json:"idempotency_key"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
}

// LowestRating returns the smallest rating in the response, or 0 when empty.
func (r *Response) LowestRating() int {
	lowest := 0
	for _, a := range r.Answers {
		if lowest == 0 || a.Rating < lowest {
			lowest = a.Rating
		}
	}
	return lowest
}
