package questions

import (
	"context"
	"time"

	"tably-backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// sessionTTL bounds how long an operator can sit on the victim-selection
// dialog before the pending candidate is discarded.
const sessionTTL = 15 * time.Minute

// session is a pending replacement: the venue is at capacity and the operator
// has not yet picked which active question to deactivate.
type session struct {
	id        string
	venueID   bson.ObjectID
	candidate Candidate
	active    []models.Question
	expiresAt time.Time
}

// SessionInfo is the caller-facing view of a replacement session: what is
// pending and which active questions can be picked as the victim.
type SessionInfo struct {
	ID              string            `json:"session_id"`
	VenueID         bson.ObjectID     `json:"venue_id"`
	Source          CandidateKind     `json:"source"`
	PendingText     string            `json:"pending_text,omitempty"`
	ActiveQuestions []models.Question `json:"active_questions"`
	ExpiresAt       time.Time         `json:"expires_at"`
}

func (s *Service) openSession(venueID bson.ObjectID, cand Candidate, active []models.Question) *SessionInfo {
	sess := &session{
		id:        uuid.New().String(),
		venueID:   venueID,
		candidate: cand,
		active:    active,
		expiresAt: s.now().Add(sessionTTL),
	}

	s.mu.Lock()
	for id, old := range s.sessions {
		if s.now().After(old.expiresAt) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess.info()
}

func (sess *session) info() *SessionInfo {
	return &SessionInfo{
		ID:              sess.id,
		VenueID:         sess.venueID,
		Source:          sess.candidate.Kind,
		PendingText:     sess.candidate.Text,
		ActiveQuestions: sess.active,
		ExpiresAt:       sess.expiresAt,
	}
}

func (s *Service) lookupSession(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, id)
		return nil
	}
	return sess
}

// ConfirmReplacement deactivates the chosen victim and applies the session's
// pending candidate in its place. The duplicate check for new candidates runs
// again here: the active set may have changed while the operator decided.
//
// The session must belong to venueID — the venue the caller is authorized
// for. A session opened for another venue is reported as not found.
//
// On failure the session is kept so the operator can pick another victim or
// cancel; it is only cleared once the replacement has been applied.
func (s *Service) ConfirmReplacement(ctx context.Context, venueID bson.ObjectID, sessionID string, victimID bson.ObjectID) (*models.Question, error) {
	sess := s.lookupSession(sessionID)
	if sess == nil || sess.venueID != venueID {
		return nil, ErrSessionNotFound
	}
	if victimID.IsZero() {
		return nil, &ValidationError{Reason: "a victim question must be selected"}
	}

	lock := s.venueLock(sess.venueID)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.store.ListActive(ctx, sess.venueID)
	if err != nil {
		return nil, err
	}
	victimActive := false
	for _, q := range active {
		if q.ID == victimID {
			victimActive = true
			break
		}
	}
	if !victimActive {
		return nil, &ValidationError{Reason: "selected victim is not an active question for this venue"}
	}

	// The incoming question takes the last slot once the victim is gone.
	order := len(active) - 1

	var applied *models.Question
	switch sess.candidate.Kind {
	case CandidateNew:
		if err := validateText(sess.candidate.Text); err != nil {
			return nil, err
		}
		dup, err := s.store.ExistsActiveText(ctx, sess.venueID, sess.candidate.Text)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, &DuplicateQuestionError{Text: sess.candidate.Text}
		}
		q := &models.Question{
			VenueID:      sess.venueID,
			Text:         sess.candidate.Text,
			Active:       true,
			Order:        order,
			Category:     sess.candidate.Category,
			FollowUpTags: models.NormalizeFollowUpTags(sess.candidate.Tags),
		}
		if err := s.store.ReplaceWithNew(ctx, sess.venueID, victimID, q); err != nil {
			return nil, err
		}
		applied = q

	case CandidateArchived:
		if sess.candidate.QuestionID.IsZero() {
			return nil, &ValidationError{Reason: "replacement session has no archived question"}
		}
		if err := s.store.ReplaceWithArchived(ctx, sess.venueID, victimID, sess.candidate.QuestionID, order); err != nil {
			return nil, err
		}
		q, err := s.findActive(ctx, sess.venueID, sess.candidate.QuestionID)
		if err != nil {
			return nil, err
		}
		applied = q

	default:
		return nil, &ValidationError{Reason: "unknown candidate kind"}
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return applied, nil
}

// Cancel discards a pending replacement. No store mutation has happened yet,
// so cancelling requires no compensation. Like ConfirmReplacement, a session
// belonging to another venue is reported as not found.
func (s *Service) Cancel(venueID bson.ObjectID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.venueID != venueID {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
