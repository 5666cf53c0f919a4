package questions

import "errors"

// ErrSessionNotFound is returned when a replacement session ID is unknown,
// already consumed, expired, or belongs to another venue.
var ErrSessionNotFound = errors.New("replacement session not found or expired")

// ErrQuestionNotFound is returned when a question ID does not exist for the
// venue being mutated. A question belonging to another venue is treated the
// same as a missing one.
var ErrQuestionNotFound = errors.New("question not found for this venue")

// ValidationError rejects a request before any store mutation happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// DuplicateQuestionError means the venue already has an active question with
// the same text. Archived questions never trigger it.
type DuplicateQuestionError struct {
	Text string
}

func (e *DuplicateQuestionError) Error() string {
	return "an active question with this text already exists: " + e.Text
}
