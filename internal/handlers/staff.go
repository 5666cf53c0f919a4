package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"tably-backend/internal/middleware"
	"tably-backend/internal/models"
	"tably-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

// inviteTTL is how long a staff invite stays usable.
const inviteTTL = 72 * time.Hour

type StaffHandler struct {
	inviteRepo *repository.StaffInviteRepo
	venueRepo  *repository.VenueRepo
	userRepo   *repository.UserRepo
}

func NewStaffHandler(inviteRepo *repository.StaffInviteRepo, venueRepo *repository.VenueRepo, userRepo *repository.UserRepo) *StaffHandler {
	return &StaffHandler{
		inviteRepo: inviteRepo,
		venueRepo:  venueRepo,
		userRepo:   userRepo,
	}
}

type InviteRequest struct {
	Email string `json:"email"`
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

// --- POST /venues/{venueID}/staff/invites ---

func (h *StaffHandler) Invite(w http.ResponseWriter, r *http.Request) {
	venueID, ok := venueIDParam(w, r)
	if !ok {
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	// Rate limiting: max 5 invites per email in 10 minutes
	count, err := h.inviteRepo.CountRecentByEmail(r.Context(), req.Email, 10*time.Minute)
	if err != nil {
		log.Printf("Error checking rate limit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if count >= 5 {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many invites for this email, please try again later"})
		return
	}

	venue, err := h.venueRepo.FindByID(r.Context(), venueID)
	if err != nil || venue == nil {
		log.Printf("Error finding venue for invite: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	invite := &models.StaffInvite{
		VenueID:    venueID,
		Email:      req.Email,
		Token:      uuid.New().String(),
		ExpiresAt:  time.Now().Add(inviteTTL),
		IsAccepted: false,
	}
	if err := h.inviteRepo.Create(r.Context(), invite); err != nil {
		log.Printf("Error creating staff invite: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create invite"})
		return
	}

	inviteLink := fmt.Sprintf("%s/staff/invites/redirect?token=%s", baseURL(r), invite.Token)

	if err := sendInviteEmail(req.Email, venue.Name, inviteLink); err != nil {
		log.Printf("Error sending email: %v", err)
		// Don't fail the request — invite is created, email sending is best-effort
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "invite created (email delivery may be delayed)",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "invite sent",
	})
}

// --- POST /staff/invites/accept ---

func (h *StaffHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}

	invite, err := h.inviteRepo.FindByToken(r.Context(), req.Token)
	if err != nil {
		log.Printf("Error finding invite: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if invite == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid invite"})
		return
	}
	if invite.IsExpired() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invite has expired"})
		return
	}
	if invite.IsAccepted {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invite has already been used"})
		return
	}

	email := middleware.GetEmail(r.Context())
	if !strings.EqualFold(email, invite.Email) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invite was issued to a different email address"})
		return
	}

	user, err := h.userRepo.FindOrCreate(r.Context(), invite.Email)
	if err != nil {
		log.Printf("Error finding/creating user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.inviteRepo.MarkAccepted(r.Context(), req.Token); err != nil {
		log.Printf("Error marking invite accepted: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.venueRepo.AddStaff(r.Context(), invite.VenueID, user.ID); err != nil {
		log.Printf("Error adding staff member: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add staff member"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "invite accepted",
		"venue_id": invite.VenueID.Hex(),
	})
}

// --- GET /staff/invites/redirect ---
// This endpoint is clicked from the email. It serves an HTML page that sends
// the invitee to the dashboard with the token pre-filled.

func (h *StaffHandler) RedirectToDashboard(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	dashboardURL := os.Getenv("DASHBOARD_URL")
	if dashboardURL == "" {
		dashboardURL = "https://app.tably.example"
	}
	target := fmt.Sprintf("%s/invite?token=%s", strings.TrimRight(dashboardURL, "/"), token)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Joining your team...</title>
	<style>
		body { font-family: -apple-system, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: #f0fdf4; }
		.card { text-align: center; padding: 40px; background: white; border-radius: 16px; box-shadow: 0 4px 24px rgba(0,0,0,0.1); max-width: 400px; }
		h1 { color: #333; font-size: 24px; }
		p { color: #666; font-size: 16px; line-height: 1.5; }
		.btn { display: inline-block; background: #16a34a; color: white; padding: 14px 32px; border-radius: 10px; text-decoration: none; font-weight: 600; font-size: 16px; margin-top: 16px; }
		.btn:hover { background: #15803d; }
	</style>
</head>
<body>
	<div class="card">
		<h1>You've been invited!</h1>
		<p>Open the dashboard to join the venue's team.</p>
		<a href="%s" class="btn">Open Dashboard</a>
	</div>
	<script>
		window.location.href = "%s";
	</script>
</body>
</html>`, target, target)
}

// --- Helpers ---

func baseURL(r *http.Request) string {
	if base := os.Getenv("BASE_URL"); base != "" {
		return base
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func sendInviteEmail(to, venueName, link string) error {
	apiKey := os.Getenv("RESEND_API_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")

	if apiKey == "" {
		log.Println("⚠️  RESEND_API_KEY not set, skipping email send")
		log.Printf("📧 [Dev Mode] Invite link for %s: %s", to, link)
		return nil
	}

	client := resend.NewClient(apiKey)

	params := &resend.SendEmailRequest{
		From:    fromEmail,
		To:      []string{to},
		Subject: fmt.Sprintf("You've been invited to manage %s on Tably", venueName),
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Join %s on Tably</h2>
				<p>You've been invited to help manage customer feedback. Click below to accept:</p>
				<a href="%s" style="display: inline-block; background: #16a34a; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600;">
					Accept Invite
				</a>
				<p style="color: #888; font-size: 14px; margin-top: 16px;">
					This invite expires in 72 hours and can only be used once.
				</p>
				<p style="color: #aaa; font-size: 12px;">
					If you weren't expecting this, you can safely ignore this email.
				</p>
			</div>
		`, venueName, link),
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Invite email sent successfully (ID: %s)", sent.Id)
	return nil
}
