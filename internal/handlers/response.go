package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"tably-backend/internal/models"
	"tably-backend/internal/questions"
	"tably-backend/internal/repository"
	"tably-backend/internal/slack"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// lowRatingThreshold is the rating at or below which a response pings the
// venue's notification channel.
const lowRatingThreshold = 2

// followUpRatingCeiling is the highest rating for which follow-up tags are
// collected from the customer.
const followUpRatingCeiling = 3

type ResponseHandler struct {
	responseRepo *repository.ResponseRepo
	venueRepo    *repository.VenueRepo
	store        questions.Store
	notifier     slack.Notifier
}

func NewResponseHandler(responseRepo *repository.ResponseRepo, venueRepo *repository.VenueRepo, store questions.Store, notifier slack.Notifier) *ResponseHandler {
	return &ResponseHandler{
		responseRepo: responseRepo,
		venueRepo:    venueRepo,
		store:        store,
		notifier:     notifier,
	}
}

type SubmitAnswer struct {
	QuestionID   string   `json:"question_id"`
	Rating       int      `json:"rating"`
	FollowUpTags []string `json:"follow_up_tags"`
	Comment      string   `json:"comment"`
}

type SubmitResponseRequest struct {
	IdempotencyKey string         `json:"idempotency_key"`
	Answers        []SubmitAnswer `json:"answers"`
}

// --- GET /public/venues/{slug}/questions ---

func (h *ResponseHandler) PublicQuestions(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.venueBySlug(w, r)
	if !ok {
		return
	}

	active, err := h.store.ListActive(r.Context(), venue.ID)
	if err != nil {
		log.Printf("Error listing active questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"venue":     map[string]string{"name": venue.Name, "slug": venue.Slug},
		"questions": active,
	})
}

// --- POST /public/venues/{slug}/responses ---

func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	venue, ok := h.venueBySlug(w, r)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.IdempotencyKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "idempotency_key is required"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one answer is required"})
		return
	}

	// Idempotency check — prevent duplicate submissions
	existing, err := h.responseRepo.FindByIdempotencyKey(r.Context(), req.IdempotencyKey)
	if err != nil {
		log.Printf("Error checking idempotency: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if existing != nil {
		// Already submitted — return the existing response (idempotent behavior)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "response already submitted",
			"response": existing,
		})
		return
	}

	active, err := h.store.ListActive(r.Context(), venue.ID)
	if err != nil {
		log.Printf("Error listing active questions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	activeByID := make(map[bson.ObjectID]*models.Question, len(active))
	for i := range active {
		activeByID[active[i].ID] = &active[i]
	}

	answers := make([]models.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		questionID, err := bson.ObjectIDFromHex(a.QuestionID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question ID in answers"})
			return
		}
		question, ok := activeByID[questionID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "answer references a question that is not active for this venue"})
			return
		}
		if a.Rating < 1 || a.Rating > 5 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
			return
		}
		if len(a.FollowUpTags) > 0 {
			if a.Rating > followUpRatingCeiling {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "follow-up tags are only collected for low ratings"})
				return
			}
			for _, tag := range a.FollowUpTags {
				if !question.HasFollowUpTag(tag) {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown follow-up tag: %s", tag)})
					return
				}
			}
		}
		answers = append(answers, models.Answer{
			QuestionID:   questionID,
			Rating:       a.Rating,
			FollowUpTags: a.FollowUpTags,
			Comment:      a.Comment,
		})
	}

	response := &models.Response{
		VenueID:        venue.ID,
		Answers:        answers,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := h.responseRepo.Create(r.Context(), response); err != nil {
		log.Printf("Error creating response: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to submit response"})
		return
	}

	// Fire Slack notification in a background goroutine (non-blocking)
	if response.LowestRating() <= lowRatingThreshold {
		message := formatLowRatingMessage(venue.Name, response)
		go func() {
			if err := h.notifier.Publish(context.Background(), message); err != nil {
				log.Printf("Error publishing to Slack: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "response submitted successfully",
		"response": response,
	})
}

func (h *ResponseHandler) venueBySlug(w http.ResponseWriter, r *http.Request) (*models.Venue, bool) {
	slug := chi.URLParam(r, "slug")
	venue, err := h.venueRepo.FindBySlug(r.Context(), slug)
	if err != nil {
		log.Printf("Error finding venue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return nil, false
	}
	if venue == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "venue not found"})
		return nil, false
	}
	return venue, true
}

func formatLowRatingMessage(venueName string, response *models.Response) string {
	stars := ""
	for i := 0; i < response.LowestRating(); i++ {
		stars += "⭐"
	}
	return "🚨 *Low Rating Received*\n" +
		"Venue: " + venueName + "\n" +
		"Lowest rating: " + stars + "\n" +
		"Answers: " + fmt.Sprintf("%d", len(response.Answers))
}
