package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tably-backend/internal/models"
	"tably-backend/internal/questions"
	"tably-backend/internal/slack"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type QuestionHandler struct {
	service  *questions.Service
	store    questions.Store
	notifier slack.Notifier
}

func NewQuestionHandler(service *questions.Service, store questions.Store, notifier slack.Notifier) *QuestionHandler {
	return &QuestionHandler{
		service:  service,
		store:    store,
		notifier: notifier,
	}
}

type CreateQuestionRequest struct {
	Question     string   `json:"question"`
	Category     string   `json:"category"`
	FollowUpTags []string `json:"follow_up_tags"`
}

type UpdateQuestionRequest struct {
	Question     *string  `json:"question"`
	Category     *string  `json:"category"`
	FollowUpTags []string `json:"follow_up_tags"`
}

type ReorderRequest struct {
	QuestionIDs []string `json:"question_ids"`
}

type ConfirmReplacementRequest struct {
	VictimID string `json:"victim_id"`
}

// --- GET /venues/{venueID}/questions ---

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}

	active, err := h.store.ListActive(r.Context(), venueID)
	if err != nil {
		log.Printf("Error listing active questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": active})
}

// --- GET /venues/{venueID}/questions/archived ---

func (h *QuestionHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}

	archived, err := h.store.ListInactive(r.Context(), venueID)
	if err != nil {
		log.Printf("Error listing archived questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": archived})
}

// --- POST /venues/{venueID}/questions ---

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	decision, err := h.service.RequestActivate(r.Context(), venueID, questions.Candidate{
		Kind:     questions.CandidateNew,
		Text:     req.Question,
		Category: models.Category(req.Category),
		Tags:     req.FollowUpTags,
	})
	if err != nil {
		writeQuestionError(w, err)
		return
	}

	h.writeDecision(w, decision)
}

// --- POST /venues/{venueID}/questions/{questionID}/reactivate ---

func (h *QuestionHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}
	questionID, err := bson.ObjectIDFromHex(chi.URLParam(r, "questionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question ID"})
		return
	}

	decision, err := h.service.RequestActivate(r.Context(), venueID, questions.Candidate{
		Kind:       questions.CandidateArchived,
		QuestionID: questionID,
	})
	if err != nil {
		writeQuestionError(w, err)
		return
	}

	h.writeDecision(w, decision)
}

func (h *QuestionHandler) writeDecision(w http.ResponseWriter, decision questions.Decision) {
	if decision.Applied {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"question": decision.Question})
		return
	}

	// Venue is at capacity: the operator must pick a victim to replace.
	writeJSON(w, http.StatusConflict, map[string]interface{}{
		"replacement_required": true,
		"session":              decision.Session,
	})
}

// --- PATCH /venues/{venueID}/questions/{questionID} ---

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}
	questionID, err := bson.ObjectIDFromHex(chi.URLParam(r, "questionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question ID"})
		return
	}

	var req UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fields := questions.UpdateFields{
		Text: req.Question,
		Tags: req.FollowUpTags,
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		fields.Category = &category
	}

	if err := h.service.UpdateQuestion(r.Context(), venueID, questionID, fields); err != nil {
		writeQuestionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "question updated"})
}

// --- DELETE /venues/{venueID}/questions/{questionID} ---

func (h *QuestionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}
	questionID, err := bson.ObjectIDFromHex(chi.URLParam(r, "questionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question ID"})
		return
	}

	if err := h.service.Archive(r.Context(), venueID, questionID); err != nil {
		writeQuestionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "question archived"})
}

// --- PUT /venues/{venueID}/questions/order ---

func (h *QuestionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ids := make([]bson.ObjectID, 0, len(req.QuestionIDs))
	for _, raw := range req.QuestionIDs {
		id, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question ID in order list"})
			return
		}
		ids = append(ids, id)
	}

	if err := h.service.Reorder(r.Context(), venueID, ids); err != nil {
		// A partial batch may have been applied; the client must re-fetch the
		// list rather than keep its local ordering.
		writeQuestionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order updated"})
}

// --- POST /venues/{venueID}/replacements/{sessionID}/confirm ---

func (h *QuestionHandler) ConfirmReplacement(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req ConfirmReplacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	victimID, err := bson.ObjectIDFromHex(req.VictimID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid victim ID"})
		return
	}

	applied, err := h.service.ConfirmReplacement(r.Context(), venueID, sessionID, victimID)
	if err != nil {
		writeQuestionError(w, err)
		return
	}

	// Fire Slack notification in a background goroutine (non-blocking)
	go func() {
		message := "♻️ *Question replaced*\n" +
			"Venue: `" + applied.VenueID.Hex() + "`\n" +
			"Now asking: " + applied.Text
		if err := h.notifier.Publish(context.Background(), message); err != nil {
			log.Printf("Error publishing to Slack: %v", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{"question": applied})
}

// --- DELETE /venues/{venueID}/replacements/{sessionID} ---

func (h *QuestionHandler) CancelReplacement(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.Cancel(venueID, sessionID); err != nil {
		writeQuestionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "replacement cancelled"})
}

// --- Helpers ---

func venueIDParam(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	venueID, err := bson.ObjectIDFromHex(chi.URLParam(r, "venueID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
		return bson.ObjectID{}, false
	}
	return venueID, true
}

func writeQuestionError(w http.ResponseWriter, err error) {
	var verr *questions.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
		return
	}
	var dup *questions.DuplicateQuestionError
	if errors.As(err, &dup) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": dup.Error()})
		return
	}
	if errors.Is(err, questions.ErrSessionNotFound) || errors.Is(err, questions.ErrQuestionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	log.Printf("Question store error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
