package questions

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tably-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeStore is an in-memory Store used by the core tests. Its Replace*
// methods are atomic like the Mongo implementation's transactions.
type fakeStore struct {
	mu        sync.Mutex
	questions map[bson.ObjectID]*models.Question
	seq       int

	failSetActive error
	failCreate    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{questions: make(map[bson.ObjectID]*models.Question)}
}

func (f *fakeStore) nextID() bson.ObjectID {
	f.seq++
	var id bson.ObjectID
	id[11] = byte(f.seq)
	id[10] = byte(f.seq >> 8)
	return id
}

// seed inserts a question directly, bypassing the service.
func (f *fakeStore) seed(venueID bson.ObjectID, text string, active bool, order int) bson.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID()
	f.questions[id] = &models.Question{
		ID:           id,
		VenueID:      venueID,
		Text:         text,
		Active:       active,
		Order:        order,
		Category:     models.CategoryGeneral,
		FollowUpTags: []string{models.OtherTag},
	}
	return id
}

// snapshot returns a stable dump of all questions for before/after comparison.
func (f *fakeStore) snapshot() []models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Question, 0, len(f.questions))
	for _, q := range f.questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (f *fakeStore) list(venueID bson.ObjectID, active bool) []models.Question {
	out := make([]models.Question, 0)
	for _, q := range f.questions {
		if q.VenueID == venueID && q.Active == active {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (f *fakeStore) ListActive(_ context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(venueID, true), nil
}

func (f *fakeStore) ListInactive(_ context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(venueID, false), nil
}

func (f *fakeStore) Create(_ context.Context, q *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	q.ID = f.nextID()
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, venueID, id bson.ObjectID, active bool, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetActive != nil {
		return f.failSetActive
	}
	q, ok := f.questions[id]
	if !ok || q.VenueID != venueID {
		return ErrQuestionNotFound
	}
	q.Active = active
	q.Order = order
	return nil
}

func (f *fakeStore) Update(_ context.Context, venueID, id bson.ObjectID, fields UpdateFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok || q.VenueID != venueID {
		return ErrQuestionNotFound
	}
	if fields.Text != nil {
		q.Text = *fields.Text
	}
	if fields.Category != nil {
		q.Category = *fields.Category
	}
	if fields.Tags != nil {
		q.FollowUpTags = fields.Tags
	}
	return nil
}

func (f *fakeStore) Reorder(_ context.Context, venueID bson.ObjectID, ids []bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range ids {
		q, ok := f.questions[id]
		if !ok || q.VenueID != venueID {
			return errors.New("question not found")
		}
		q.Order = i + 1
	}
	return nil
}

func (f *fakeStore) ExistsActiveText(_ context.Context, venueID bson.ObjectID, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.VenueID == venueID && q.Active && q.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ReplaceWithNew(_ context.Context, venueID, victimID bson.ObjectID, q *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetActive != nil {
		return f.failSetActive
	}
	victim, ok := f.questions[victimID]
	if !ok || victim.VenueID != venueID {
		return ErrQuestionNotFound
	}
	victim.Active = false
	victim.Order = 0
	q.ID = f.nextID()
	cp := *q
	f.questions[q.ID] = &cp
	return nil
}

func (f *fakeStore) ReplaceWithArchived(_ context.Context, venueID, victimID, candidateID bson.ObjectID, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetActive != nil {
		return f.failSetActive
	}
	victim, ok := f.questions[victimID]
	if !ok || victim.VenueID != venueID {
		return ErrQuestionNotFound
	}
	candidate, ok := f.questions[candidateID]
	if !ok || candidate.VenueID != venueID {
		return ErrQuestionNotFound
	}
	victim.Active = false
	victim.Order = 0
	candidate.Active = true
	candidate.Order = order
	return nil
}
