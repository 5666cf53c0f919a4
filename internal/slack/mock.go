package slack

import (
	"context"
	"log"
)

// MockSlack implements the Notifier interface by logging messages to stdout.
// Used when SLACK_WEBHOOK_URL is not configured.
type MockSlack struct{}

func NewMockSlack() *MockSlack {
	return &MockSlack{}
}

func (m *MockSlack) Publish(ctx context.Context, message string) error {
	log.Printf("📨 [MockSlack] Published to Slack channel: %s", message)
	return nil
}
