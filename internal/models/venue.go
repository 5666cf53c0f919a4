package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Venue struct {
	ID        bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string          `bson:"name" json:"name"`
	Slug      string          `bson:"slug" json:"slug"`
	OwnerID   bson.ObjectID   `bson:"owner_id" json:"owner_id"`
	StaffIDs  []bson.ObjectID `bson:"staff_ids" json:"staff_ids"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// IsMember reports whether the user owns the venue or is on its staff list.
func (v *Venue) IsMember(userID bson.ObjectID) bool {
	if v.OwnerID == userID {
		return true
	}
	for _, id := range v.StaffIDs {
		if id == userID {
			return true
		}
	}
	return false
}
