package handlers

import (
	"log"
	"net/http"

	"tably-backend/internal/middleware"
	"tably-backend/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserHandler struct {
	userRepo  *repository.UserRepo
	venueRepo *repository.VenueRepo
}

func NewUserHandler(userRepo *repository.UserRepo, venueRepo *repository.VenueRepo) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		venueRepo: venueRepo,
	}
}

// --- GET /me ---

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if user == nil {
		// First request after signup at the auth provider: mirror the record.
		email := middleware.GetEmail(r.Context())
		if email == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		user, err = h.userRepo.FindOrCreate(r.Context(), email)
		if err != nil {
			log.Printf("Error creating user: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	venues, err := h.venueRepo.ListByMember(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing venues: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"venues": venues,
	})
}
