package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"

	"tably-backend/internal/middleware"
	"tably-backend/internal/models"
	"tably-backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type VenueHandler struct {
	venueRepo *repository.VenueRepo
}

func NewVenueHandler(venueRepo *repository.VenueRepo) *VenueHandler {
	return &VenueHandler{
		venueRepo: venueRepo,
	}
}

type CreateVenueRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// --- POST /venues ---

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	userIDHex := middleware.GetUserID(r.Context())
	if userIDHex == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	ownerID, err := bson.ObjectIDFromHex(userIDHex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	var req CreateVenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "venue name is required"})
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slug must be lowercase letters, digits and hyphens"})
		return
	}

	venue := &models.Venue{
		Name:    req.Name,
		Slug:    req.Slug,
		OwnerID: ownerID,
	}
	if err := h.venueRepo.Create(r.Context(), venue); err != nil {
		log.Printf("Error creating venue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create venue"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"venue": venue})
}

// --- GET /venues ---

func (h *VenueHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userIDHex := middleware.GetUserID(r.Context())
	if userIDHex == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	userID, err := bson.ObjectIDFromHex(userIDHex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	venues, err := h.venueRepo.ListByMember(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing venues: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"venues": venues})
}

// RequireMember gates the /venues/{venueID} subtree: the authenticated user
// must own the venue or be on its staff list.
func (h *VenueHandler) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userIDHex := middleware.GetUserID(r.Context())
		if userIDHex == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		userID, err := bson.ObjectIDFromHex(userIDHex)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
			return
		}

		venueID, err := bson.ObjectIDFromHex(chi.URLParam(r, "venueID"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid venue ID"})
			return
		}

		venue, err := h.venueRepo.FindByID(r.Context(), venueID)
		if err != nil {
			log.Printf("Error finding venue: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if venue == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "venue not found"})
			return
		}
		if !venue.IsMember(userID) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "you do not have access to this venue"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
