package questions

import (
	"context"

	"tably-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type CandidateKind string

const (
	// CandidateNew proposes a brand-new question.
	CandidateNew CandidateKind = "new"
	// CandidateArchived proposes re-activating a previously archived question.
	CandidateArchived CandidateKind = "archived"
)

// Candidate is a request to bring a question into the venue's active set.
// Text, Category and Tags are set for new questions; QuestionID references
// the archived question being promoted.
type Candidate struct {
	Kind       CandidateKind
	Text       string
	Category   models.Category
	Tags       []string
	QuestionID bson.ObjectID
}

// Decision is the outcome of RequestActivate. Either the mutation was applied
// directly (Applied, Question set) or the venue is at capacity and the caller
// must drive the replacement flow (Session set).
type Decision struct {
	Applied  bool
	Question *models.Question
	Session  *SessionInfo
}

// RequestActivate gates an add-or-reactivate request through the capacity
// rule. Under capacity the store is mutated directly; at capacity no mutation
// happens and a replacement session is opened instead.
func (s *Service) RequestActivate(ctx context.Context, venueID bson.ObjectID, cand Candidate) (Decision, error) {
	switch cand.Kind {
	case CandidateNew:
		if err := validateText(cand.Text); err != nil {
			return Decision{}, err
		}
		if cand.Category == "" {
			cand.Category = models.CategoryGeneral
		}
		if !cand.Category.Valid() {
			return Decision{}, &ValidationError{Reason: "unknown category"}
		}
	case CandidateArchived:
		if cand.QuestionID.IsZero() {
			return Decision{}, &ValidationError{Reason: "archived question id is required"}
		}
	default:
		return Decision{}, &ValidationError{Reason: "unknown candidate kind"}
	}

	lock := s.venueLock(venueID)
	lock.Lock()
	defer lock.Unlock()

	if cand.Kind == CandidateArchived {
		// The candidate must exist and actually be archived for this venue.
		if _, err := s.findInactive(ctx, venueID, cand.QuestionID); err != nil {
			return Decision{}, err
		}
	}

	active, err := s.store.ListActive(ctx, venueID)
	if err != nil {
		return Decision{}, err
	}

	if len(active) >= models.MaxActiveQuestions {
		info := s.openSession(venueID, cand, active)
		return Decision{Session: info}, nil
	}

	switch cand.Kind {
	case CandidateNew:
		dup, err := s.store.ExistsActiveText(ctx, venueID, cand.Text)
		if err != nil {
			return Decision{}, err
		}
		if dup {
			return Decision{}, &DuplicateQuestionError{Text: cand.Text}
		}
		q := &models.Question{
			VenueID:      venueID,
			Text:         cand.Text,
			Active:       true,
			Order:        len(active),
			Category:     cand.Category,
			FollowUpTags: models.NormalizeFollowUpTags(cand.Tags),
		}
		if err := s.store.Create(ctx, q); err != nil {
			return Decision{}, err
		}
		return Decision{Applied: true, Question: q}, nil

	default: // CandidateArchived
		if err := s.store.SetActive(ctx, venueID, cand.QuestionID, true, len(active)); err != nil {
			return Decision{}, err
		}
		q, err := s.findActive(ctx, venueID, cand.QuestionID)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Applied: true, Question: q}, nil
	}
}

// IsDuplicateActive reports whether the venue already has an active question
// with exactly this text. Archived questions are never considered.
func (s *Service) IsDuplicateActive(ctx context.Context, venueID bson.ObjectID, text string) (bool, error) {
	return s.store.ExistsActiveText(ctx, venueID, text)
}

func (s *Service) findInactive(ctx context.Context, venueID, id bson.ObjectID) (*models.Question, error) {
	inactive, err := s.store.ListInactive(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range inactive {
		if inactive[i].ID == id {
			return &inactive[i], nil
		}
	}
	return nil, &ValidationError{Reason: "archived question not found for this venue"}
}

func (s *Service) findActive(ctx context.Context, venueID, id bson.ObjectID) (*models.Question, error) {
	active, err := s.store.ListActive(ctx, venueID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].ID == id {
			return &active[i], nil
		}
	}
	return nil, &ValidationError{Reason: "question is not active for this venue"}
}
