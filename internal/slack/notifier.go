package slack

import "context"

// Notifier publishes operational alerts: question replacements applied by an
// operator and low-rating customer responses. The webhook implementation
// posts to Slack; the mock logs to stdout when no webhook is configured.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}
