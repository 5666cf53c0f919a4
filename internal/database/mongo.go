package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultConnectTimeout = 10 * time.Second

var DB *mongo.Database

// Connect establishes the MongoDB connection and pings it before any
// collection is handed out. MONGO_CONNECT_TIMEOUT overrides the default
// 10s bound (as a Go duration, e.g. "30s").
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout())
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	DB = client.Database(dbName)
	log.Println("✅ Connected to MongoDB")
	return nil
}

func connectTimeout() time.Duration {
	raw := os.Getenv("MONGO_CONNECT_TIMEOUT")
	if raw == "" {
		return defaultConnectTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("⚠️ Invalid MONGO_CONNECT_TIMEOUT %q, using %s", raw, defaultConnectTimeout)
		return defaultConnectTimeout
	}
	return d
}

func GetCollection(name string) *mongo.Collection {
	return DB.Collection(name)
}
