package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxQuestionLength is the longest question text a venue can configure.
const MaxQuestionLength = 100

// MaxActiveQuestions is the per-venue cap on questions shown to customers.
const MaxActiveQuestions = 5

// OtherTag is the catch-all follow-up tag every question carries.
const OtherTag = "Other"

type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryService     Category = "service"
	CategoryFood        Category = "food"
	CategoryDrinks      Category = "drinks"
	CategoryAtmosphere  Category = "atmosphere"
	CategoryValue       Category = "value"
	CategoryCleanliness Category = "cleanliness"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryService, CategoryFood, CategoryDrinks,
		CategoryAtmosphere, CategoryValue, CategoryCleanliness:
		return true
	}
	return false
}

type Question struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	VenueID      bson.ObjectID `bson:"venue_id" json:"venue_id"`
	Text         string        `bson:"question" json:"question"`
	Active       bool          `bson:"active" json:"active"`
	Order        int           `bson:"order" json:"order"`
	Category     Category      `bson:"category" json:"category"`
	FollowUpTags []string      `bson:"follow_up_tags" json:"follow_up_tags"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// HasFollowUpTag reports whether tag is one of the question's configured tags.
// Tags are stored with their original casing, so the match is exact.
func (q *Question) HasFollowUpTag(tag string) bool {
	for _, t := range q.FollowUpTags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeFollowUpTags trims tags, drops empties, removes case-insensitive
// duplicates (first casing wins) and guarantees exactly one trailing "Other".
// Calling it on its own output returns the same slice contents.
func NormalizeFollowUpTags(tags []string) []string {
	out := make([]string, 0, len(tags)+1)
	seen := make(map[string]struct{}, len(tags)+1)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		// Any case variant of "Other" is replaced by the canonical one below.
		if strings.EqualFold(tag, OtherTag) {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return append(out, OtherTag)
}
