package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"tably-backend/internal/models"
	"tably-backend/internal/questions"
)

// memStore is a minimal in-memory questions.Store for handler tests.
type memStore struct {
	questions map[bson.ObjectID]*models.Question
	seq       int
}

func newMemStore() *memStore {
	return &memStore{questions: make(map[bson.ObjectID]*models.Question)}
}

func (m *memStore) nextID() bson.ObjectID {
	m.seq++
	var id bson.ObjectID
	id[11] = byte(m.seq)
	return id
}

func (m *memStore) seed(venueID bson.ObjectID, text string, active bool, order int) bson.ObjectID {
	id := m.nextID()
	m.questions[id] = &models.Question{
		ID: id, VenueID: venueID, Text: text, Active: active, Order: order,
		Category: models.CategoryGeneral, FollowUpTags: []string{models.OtherTag},
	}
	return id
}

func (m *memStore) list(venueID bson.ObjectID, active bool) []models.Question {
	out := []models.Question{}
	for _, q := range m.questions {
		if q.VenueID == venueID && q.Active == active {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (m *memStore) ListActive(_ context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	return m.list(venueID, true), nil
}

func (m *memStore) ListInactive(_ context.Context, venueID bson.ObjectID) ([]models.Question, error) {
	return m.list(venueID, false), nil
}

func (m *memStore) Create(_ context.Context, q *models.Question) error {
	q.ID = m.nextID()
	cp := *q
	m.questions[q.ID] = &cp
	return nil
}

func (m *memStore) SetActive(_ context.Context, venueID, id bson.ObjectID, active bool, order int) error {
	q, ok := m.questions[id]
	if !ok || q.VenueID != venueID {
		return questions.ErrQuestionNotFound
	}
	q.Active = active
	q.Order = order
	return nil
}

func (m *memStore) Update(_ context.Context, venueID, id bson.ObjectID, fields questions.UpdateFields) error {
	q, ok := m.questions[id]
	if !ok || q.VenueID != venueID {
		return questions.ErrQuestionNotFound
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

func (m *memStore) Reorder(_ context.Context, venueID bson.ObjectID, ids []bson.ObjectID) error {
	for i, id := range ids {
		q, ok := m.questions[id]
		if !ok {
			return errors.New("not found")
		}
		q.Order = i + 1
	}
	return nil
}

func (m *memStore) ExistsActiveText(_ context.Context, venueID bson.ObjectID, text string) (bool, error) {
	for _, q := range m.questions {
		if q.VenueID == venueID && q.Active && q.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ReplaceWithNew(ctx context.Context, venueID, victimID bson.ObjectID, q *models.Question) error {
	if err := m.SetActive(ctx, venueID, victimID, false, 0); err != nil {
		return err
	}
	return m.Create(ctx, q)
}

func (m *memStore) ReplaceWithArchived(ctx context.Context, venueID, victimID, candidateID bson.ObjectID, order int) error {
	if err := m.SetActive(ctx, venueID, victimID, false, 0); err != nil {
		return err
	}
	return m.SetActive(ctx, venueID, candidateID, true, order)
}

type dropNotifier struct{}

func (dropNotifier) Publish(context.Context, string) error { return nil }

func testRouter(store *memStore) (*chi.Mux, *questions.Service) {
	svc := questions.NewService(store)
	h := NewQuestionHandler(svc, store, dropNotifier{})

	r := chi.NewRouter()
	r.Route("/venues/{venueID}", func(r chi.Router) {
		r.Get("/questions", h.List)
		r.Post("/questions", h.Create)
		r.Get("/questions/archived", h.ListArchived)
		r.Put("/questions/order", h.Reorder)
		r.Post("/questions/{questionID}/reactivate", h.Reactivate)
		r.Patch("/questions/{questionID}", h.Update)
		r.Delete("/questions/{questionID}", h.Archive)
		r.Post("/replacements/{sessionID}/confirm", h.ConfirmReplacement)
		r.Delete("/replacements/{sessionID}", h.CancelReplacement)
	})
	return r, svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func venuePath(venueID bson.ObjectID, suffix string) string {
	return fmt.Sprintf("/venues/%s%s", venueID.Hex(), suffix)
}

func TestCreateQuestion_Applied(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	rec := doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions"), CreateQuestionRequest{
		Question:     "How was the service?",
		Category:     "service",
		FollowUpTags: []string{"Slow service"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Question models.Question `json:"question"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "How was the service?", resp.Question.Text)
	assert.Equal(t, models.CategoryService, resp.Question.Category)
	assert.Equal(t, []string{"Slow service", "Other"}, resp.Question.FollowUpTags)
}

func TestCreateQuestion_ValidationAndDuplicate(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	rec := doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions"), CreateQuestionRequest{Question: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions"), CreateQuestionRequest{Question: "How was the food?"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions"), CreateQuestionRequest{Question: "How was the food?"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateQuestion_AtCapacity_ReplacementFlow(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	var victimID bson.ObjectID
	for i := 0; i < models.MaxActiveQuestions; i++ {
		id := store.seed(venueID, fmt.Sprintf("Question %d?", i), true, i)
		if i == 2 {
			victimID = id
		}
	}

	rec := doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions"), CreateQuestionRequest{Question: "Fresh question?"})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var conflict struct {
		ReplacementRequired bool                   `json:"replacement_required"`
		Session             *questions.SessionInfo `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	require.True(t, conflict.ReplacementRequired)
	require.NotNil(t, conflict.Session)
	assert.Len(t, conflict.Session.ActiveQuestions, models.MaxActiveQuestions)

	rec = doJSON(t, router, http.MethodPost,
		venuePath(venueID, "/replacements/"+conflict.Session.ID+"/confirm"),
		ConfirmReplacementRequest{VictimID: victimID.Hex()},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	active := store.list(venueID, true)
	require.Len(t, active, models.MaxActiveQuestions)
	texts := make([]string, 0, len(active))
	for _, q := range active {
		texts = append(texts, q.Text)
	}
	assert.Contains(t, texts, "Fresh question?")
	assert.NotContains(t, texts, "Question 2?")
}

func TestCancelReplacement(t *testing.T) {
	store := newMemStore()
	router, svc := testRouter(store)
	venueID := store.nextID()
	for i := 0; i < models.MaxActiveQuestions; i++ {
		store.seed(venueID, fmt.Sprintf("Question %d?", i), true, i)
	}

	dec, err := svc.RequestActivate(context.Background(), venueID, questions.Candidate{
		Kind: questions.CandidateNew, Text: "Pending?",
	})
	require.NoError(t, err)
	require.NotNil(t, dec.Session)

	rec := doJSON(t, router, http.MethodDelete, venuePath(venueID, "/replacements/"+dec.Session.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, venuePath(venueID, "/replacements/"+dec.Session.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReorderQuestions(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	a := store.seed(venueID, "A", true, 0)
	b := store.seed(venueID, "B", true, 1)
	c := store.seed(venueID, "C", true, 2)

	rec := doJSON(t, router, http.MethodPut, venuePath(venueID, "/questions/order"), ReorderRequest{
		QuestionIDs: []string{c.Hex(), a.Hex(), b.Hex()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	active := store.list(venueID, true)
	require.Len(t, active, 3)
	assert.Equal(t, "C", active[0].Text)
	assert.Equal(t, "A", active[1].Text)
	assert.Equal(t, "B", active[2].Text)
}

func TestReactivate_UnderCapacity(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	archived := store.seed(venueID, "Bring me back?", false, 0)

	rec := doJSON(t, router, http.MethodPost, venuePath(venueID, "/questions/"+archived.Hex()+"/reactivate"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	active := store.list(venueID, true)
	require.Len(t, active, 1)
	assert.Equal(t, archived, active[0].ID)
}

func TestArchiveQuestion_OtherVenue_NotFound(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueA := store.nextID()
	venueB := store.nextID()

	targetID := store.seed(venueB, "Belongs to B?", true, 0)

	// Deleting through venue A's path must not archive venue B's question.
	rec := doJSON(t, router, http.MethodDelete, venuePath(venueA, "/questions/"+targetID.Hex()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	active := store.list(venueB, true)
	require.Len(t, active, 1)
	assert.Equal(t, targetID, active[0].ID)
}

func TestUpdateQuestion_OtherVenue_NotFound(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueA := store.nextID()
	venueB := store.nextID()

	targetID := store.seed(venueB, "Belongs to B?", true, 0)

	text := "Hijacked?"
	rec := doJSON(t, router, http.MethodPatch, venuePath(venueA, "/questions/"+targetID.Hex()), UpdateQuestionRequest{Question: &text})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	active := store.list(venueB, true)
	require.Len(t, active, 1)
	assert.Equal(t, "Belongs to B?", active[0].Text)
}

func TestConfirmReplacement_OtherVenue_NotFound(t *testing.T) {
	store := newMemStore()
	router, svc := testRouter(store)
	venueA := store.nextID()
	venueB := store.nextID()

	var victimID bson.ObjectID
	for i := 0; i < models.MaxActiveQuestions; i++ {
		id := store.seed(venueA, fmt.Sprintf("Question %d?", i), true, i)
		if i == 0 {
			victimID = id
		}
	}

	dec, err := svc.RequestActivate(context.Background(), venueA, questions.Candidate{
		Kind: questions.CandidateNew, Text: "Pending?",
	})
	require.NoError(t, err)
	require.NotNil(t, dec.Session)

	// Confirming venue A's session through venue B's path is rejected.
	rec := doJSON(t, router, http.MethodPost,
		venuePath(venueB, "/replacements/"+dec.Session.ID+"/confirm"),
		ConfirmReplacementRequest{VictimID: victimID.Hex()},
	)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodDelete, venuePath(venueB, "/replacements/"+dec.Session.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The session is untouched and still works for venue A.
	rec = doJSON(t, router, http.MethodPost,
		venuePath(venueA, "/replacements/"+dec.Session.ID+"/confirm"),
		ConfirmReplacementRequest{VictimID: victimID.Hex()},
	)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestArchiveQuestion(t *testing.T) {
	store := newMemStore()
	router, _ := testRouter(store)
	venueID := store.nextID()

	id := store.seed(venueID, "Short lived?", true, 0)

	rec := doJSON(t, router, http.MethodDelete, venuePath(venueID, "/questions/"+id.Hex()), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, store.list(venueID, true))
	assert.Len(t, store.list(venueID, false), 1)
}
