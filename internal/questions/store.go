package questions

import (
	"context"

	"tably-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UpdateFields carries a partial question update. Nil pointers leave the
// stored value untouched; a nil Tags slice leaves tags untouched.
type UpdateFields struct {
	Text     *string
	Category *models.Category
	Tags     []string
}

// Store is the persistence surface the reconciliation core composes.
// It is implemented by repository.QuestionRepo; tests use an in-memory fake.
type Store interface {
	// ListActive returns the venue's active questions sorted ascending by order.
	ListActive(ctx context.Context, venueID bson.ObjectID) ([]models.Question, error)

	// ListInactive returns the venue's archived questions in no particular order.
	ListInactive(ctx context.Context, venueID bson.ObjectID) ([]models.Question, error)

	// Create inserts q with active=true and assigns its ID.
	Create(ctx context.Context, q *models.Question) error

	// SetActive flips the active flag of one of the venue's questions. The
	// order value only matters when activating; callers pass 0 when
	// archiving. Returns ErrQuestionNotFound when the question does not
	// belong to the venue.
	SetActive(ctx context.Context, venueID, id bson.ObjectID, active bool, order int) error

	// Update applies a partial update to one of the venue's questions.
	// Returns ErrQuestionNotFound when the question does not belong to the
	// venue.
	Update(ctx context.Context, venueID, id bson.ObjectID, fields UpdateFields) error

	// Reorder assigns order=index+1 for each id, one write per item in
	// sequence. It stops at the first failing write without rolling back the
	// earlier ones; the caller must re-fetch the authoritative list.
	Reorder(ctx context.Context, venueID bson.ObjectID, ids []bson.ObjectID) error

	// ExistsActiveText reports whether an active question with exactly this
	// text exists for the venue.
	ExistsActiveText(ctx context.Context, venueID bson.ObjectID, text string) (bool, error)

	// ReplaceWithNew deactivates the venue's victim and inserts q as a
	// single atomic operation: both apply or neither does.
	ReplaceWithNew(ctx context.Context, venueID, victimID bson.ObjectID, q *models.Question) error

	// ReplaceWithArchived deactivates the venue's victim and re-activates
	// candidateID with the given order as a single atomic operation.
	ReplaceWithArchived(ctx context.Context, venueID, victimID, candidateID bson.ObjectID, order int) error
}
