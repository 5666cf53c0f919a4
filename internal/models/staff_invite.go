package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type StaffInvite struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	VenueID    bson.ObjectID `bson:"venue_id" json:"venue_id"`
	Email      string        `bson:"email" json:"email"`
	Token      string        `bson:"token" json:"token"`
	ExpiresAt  time.Time     `bson:"expires_at" json:"expires_at"`
	IsAccepted bool          `bson:"is_accepted" json:"is_accepted"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
}

func (i *StaffInvite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
