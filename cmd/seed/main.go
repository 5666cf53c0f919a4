package main

import (
	"context"
	"log"
	"os"
	"time"

	"tably-backend/internal/database"
	"tably-backend/internal/models"
	"tably-backend/internal/repository"

	"github.com/joho/godotenv"
)

// Seeds a demo venue with a full question set so the dashboard and the public
// survey page have something to show on a fresh database.
func main() {
	_ = godotenv.Load()

	mongoURI := envOr("MONGODB_URI", "mongodb://localhost:27017")
	dbName := envOr("DB_NAME", "tably")

	if err := database.Connect(mongoURI, dbName); err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repository.NewUserRepo()
	venueRepo := repository.NewVenueRepo()
	questionRepo := repository.NewQuestionRepo()

	owner, err := userRepo.FindOrCreate(ctx, "owner@demo.tably.example")
	if err != nil {
		log.Fatalf("❌ Failed to create demo owner: %v", err)
	}

	existing, err := venueRepo.FindBySlug(ctx, "demo-bistro")
	if err != nil {
		log.Fatalf("❌ Failed to look up demo venue: %v", err)
	}
	if existing != nil {
		log.Println("✅ Demo venue already seeded, nothing to do")
		return
	}

	venue := &models.Venue{
		Name:    "Demo Bistro",
		Slug:    "demo-bistro",
		OwnerID: owner.ID,
	}
	if err := venueRepo.Create(ctx, venue); err != nil {
		log.Fatalf("❌ Failed to create demo venue: %v", err)
	}

	seedQuestions := []struct {
		text     string
		category models.Category
		tags     []string
	}{
		{"How was the service?", models.CategoryService, []string{"Slow service", "Unfriendly staff"}},
		{"How was your food?", models.CategoryFood, []string{"Cold food", "Small portions"}},
		{"How were the drinks?", models.CategoryDrinks, []string{"Long wait", "Wrong order"}},
		{"How was the atmosphere?", models.CategoryAtmosphere, []string{"Too loud", "Too dark"}},
		{"Was it good value for money?", models.CategoryValue, []string{"Too expensive"}},
	}
	for i, sq := range seedQuestions {
		q := &models.Question{
			VenueID:      venue.ID,
			Text:         sq.text,
			Active:       true,
			Order:        i,
			Category:     sq.category,
			FollowUpTags: models.NormalizeFollowUpTags(sq.tags),
		}
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatalf("❌ Failed to seed question %q: %v", sq.text, err)
		}
	}

	log.Printf("✅ Seeded venue %q with %d active questions", venue.Name, len(seedQuestions))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
