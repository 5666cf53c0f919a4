package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"tably-backend/internal/database"
	"tably-backend/internal/handlers"
	customMiddleware "tably-backend/internal/middleware"
	"tably-backend/internal/questions"
	"tably-backend/internal/repository"
	"tably-backend/internal/slack"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env (ignore error in production — env vars set directly)
	_ = godotenv.Load()

	// Required env vars
	mongoURI := getEnv("MONGODB_URI", "")
	dbName := getEnv("DB_NAME", "tably")
	jwtSecret := getEnv("JWT_SECRET", "")
	port := getEnv("PORT", "8080")

	if mongoURI == "" {
		log.Fatal("❌ MONGODB_URI is required")
	}
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET is required")
	}

	// Connect to MongoDB
	if err := database.Connect(mongoURI, dbName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepo()
	venueRepo := repository.NewVenueRepo()
	questionRepo := repository.NewQuestionRepo()
	inviteRepo := repository.NewStaffInviteRepo()
	responseRepo := repository.NewResponseRepo()

	// Ensure indexes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create user indexes: %v", err)
	}
	if err := venueRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create venue indexes: %v", err)
	}
	if err := questionRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create question indexes: %v", err)
	}
	if err := inviteRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create invite indexes: %v", err)
	}
	if err := responseRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️  Warning: failed to create response indexes: %v", err)
	}

	// Initialize Slack notifier (webhook if configured, mock otherwise)
	var notifier slack.Notifier
	if webhookURL := os.Getenv("SLACK_WEBHOOK_URL"); webhookURL != "" {
		notifier = slack.NewWebhook(webhookURL)
	} else {
		notifier = slack.NewMockSlack()
	}

	// Reconciliation core over the question store
	questionService := questions.NewService(questionRepo)

	// Initialize handlers
	questionHandler := handlers.NewQuestionHandler(questionService, questionRepo, notifier)
	venueHandler := handlers.NewVenueHandler(venueRepo)
	userHandler := handlers.NewUserHandler(userRepo, venueRepo)
	staffHandler := handlers.NewStaffHandler(inviteRepo, venueRepo, userRepo)
	responseHandler := handlers.NewResponseHandler(responseRepo, venueRepo, questionRepo, notifier)

	// Setup chi router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"tably-backend"}`))
	})

	// Public routes (no auth required) — customer survey surface
	r.Route("/public/venues/{slug}", func(r chi.Router) {
		r.Get("/questions", responseHandler.PublicQuestions)
		r.Post("/responses", responseHandler.SubmitResponse)
	})
	r.Get("/staff/invites/redirect", staffHandler.RedirectToDashboard)

	// Protected routes (JWT required) — dashboard surface
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.JWTAuth(jwtSecret))

		r.Get("/me", userHandler.GetMe)
		r.Post("/staff/invites/accept", staffHandler.AcceptInvite)

		r.Get("/venues", venueHandler.ListMine)
		r.Post("/venues", venueHandler.Create)

		r.Route("/venues/{venueID}", func(r chi.Router) {
			r.Use(venueHandler.RequireMember)

			r.Get("/questions", questionHandler.List)
			r.Post("/questions", questionHandler.Create)
			r.Get("/questions/archived", questionHandler.ListArchived)
			r.Put("/questions/order", questionHandler.Reorder)
			r.Post("/questions/{questionID}/reactivate", questionHandler.Reactivate)
			r.Patch("/questions/{questionID}", questionHandler.Update)
			r.Delete("/questions/{questionID}", questionHandler.Archive)

			r.Post("/replacements/{sessionID}/confirm", questionHandler.ConfirmReplacement)
			r.Delete("/replacements/{sessionID}", questionHandler.CancelReplacement)

			r.Post("/staff/invites", staffHandler.Invite)
		})
	})

	// Start server
	log.Printf("🚀 Tably backend starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
