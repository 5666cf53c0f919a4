package questions

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"tably-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service is the question-set reconciliation core: it gates every mutation of
// a venue's question set through the 5-slot capacity rule and drives the
// replacement flow when the set is full.
//
// Every mutating entry point for a venue runs under that venue's lock, so the
// count-then-act capacity check cannot race against another operator on the
// same venue within this process.
type Service struct {
	store Store

	mu       sync.Mutex
	venues   map[bson.ObjectID]*sync.Mutex
	sessions map[string]*session

	now func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store:    store,
		venues:   make(map[bson.ObjectID]*sync.Mutex),
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// venueLock returns the mutex serializing all mutations for one venue.
func (s *Service) venueLock(venueID bson.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.venues[venueID]
	if !ok {
		lock = &sync.Mutex{}
		s.venues[venueID] = lock
	}
	return lock
}

// validateText enforces the 1–100 character rule. Whitespace-only text is
// empty; length is counted in runes.
func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Reason: "question text is required"}
	}
	if utf8.RuneCountInString(text) > models.MaxQuestionLength {
		return &ValidationError{Reason: "question text must be 100 characters or fewer"}
	}
	return nil
}

// UpdateQuestion applies a partial edit to a question. Text is validated
// under the same rules as creation; tags are normalized before writing.
func (s *Service) UpdateQuestion(ctx context.Context, venueID, id bson.ObjectID, fields UpdateFields) error {
	if fields.Text != nil {
		if err := validateText(*fields.Text); err != nil {
			return err
		}
	}
	if fields.Category != nil && !fields.Category.Valid() {
		return &ValidationError{Reason: "unknown category"}
	}
	if fields.Tags != nil {
		fields.Tags = models.NormalizeFollowUpTags(fields.Tags)
	}

	lock := s.venueLock(venueID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.Update(ctx, venueID, id, fields)
}

// Archive soft-deletes a question. The slot it held simply frees up; no
// reordering of the remaining active questions is performed.
func (s *Service) Archive(ctx context.Context, venueID, id bson.ObjectID) error {
	lock := s.venueLock(venueID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.SetActive(ctx, venueID, id, false, 0)
}

// Reorder persists a new display order for the venue's active questions.
// On a partial failure the store stops writing and the caller should
// re-fetch the active list rather than trust its local ordering.
func (s *Service) Reorder(ctx context.Context, venueID bson.ObjectID, ids []bson.ObjectID) error {
	if len(ids) == 0 {
		return &ValidationError{Reason: "question ids are required"}
	}

	lock := s.venueLock(venueID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.Reorder(ctx, venueID, ids)
}
