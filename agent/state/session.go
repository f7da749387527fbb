package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive   SessionStatus = "active"
	SessionComplete SessionStatus = "complete"
	SessionFailed   SessionStatus = "failed"
)

var (
	ErrInvalidSession     = errors.New("session id is empty")
	ErrNilSession         = errors.New("session is nil")
	ErrRequestOutstanding = errors.New("a data request is already outstanding")
	ErrRequestNotFound    = errors.New("pending request not found")
)

// PendingRequest correlates an outstanding data request with the step
// that issued it. A session holds at most one at a time; the workflow
// serializes human-input cycles and never fans out questions.
type PendingRequest struct {
	RequestID string `json:"request_id"`
	StepName  string `json:"step_name"`
	Prompt    string `json:"prompt"`
}

// Session is the persistent per-customer coordination state.
//
// CurrentStepIndex is an offset into the fixed step sequence; it equals
// the step count only in the complete state. CustomerData accumulates the
// fields steps extract, last write wins per field. While PendingRequest
// is set no agent may be dispatched for this session except the one
// answering that request.
type Session struct {
	SessionID        string          `json:"session_id"`
	CurrentStepIndex int             `json:"current_step_index"`
	CustomerData     map[string]any  `json:"customer_data"`
	Status           SessionStatus   `json:"status"`
	PendingRequest   *PendingRequest `json:"pending_request,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:    sessionID,
		CustomerData: make(map[string]any, 8),
		Status:       SessionActive,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureDataMap makes sure CustomerData is initialized after a load.
func (s *Session) EnsureDataMap() {
	if s.CustomerData == nil {
		s.CustomerData = make(map[string]any, 8)
	}
}

// MergeData folds extracted fields into CustomerData. Returns the keys
// whose value changed from an earlier non-nil value, so callers can log
// field conflicts; conflicts are not rejected.
func (s *Session) MergeData(extracted map[string]any) []string {
	if len(extracted) == 0 {
		return nil
	}
	s.EnsureDataMap()
	var conflicts []string
	for k, v := range extracted {
		if prev, ok := s.CustomerData[k]; ok && prev != nil && fmt.Sprint(prev) != fmt.Sprint(v) {
			conflicts = append(conflicts, k)
		}
		s.CustomerData[k] = v
	}
	return conflicts
}

// DataSnapshot returns a copy of CustomerData safe to hand to events.
func (s *Session) DataSnapshot() map[string]any {
	out := make(map[string]any, len(s.CustomerData))
	for k, v := range s.CustomerData {
		out[k] = v
	}
	return out
}

// IssueRequest records a fresh pending request for the given step and
// returns its id. Issuing while one is outstanding is a ledger-discipline
// bug in the coordinator, surfaced as ErrRequestOutstanding rather than
// silently overwriting.
func (s *Session) IssueRequest(stepName, prompt string) (string, error) {
	if s.PendingRequest != nil {
		return "", fmt.Errorf("%w: request_id=%s", ErrRequestOutstanding, s.PendingRequest.RequestID)
	}
	rid := uuid.NewString()
	s.PendingRequest = &PendingRequest{
		RequestID: rid,
		StepName:  stepName,
		Prompt:    prompt,
	}
	return rid, nil
}

// TakeRequest retrieves and clears the pending entry when requestID
// matches. Consumed exactly once per resume.
func (s *Session) TakeRequest(requestID string) (PendingRequest, error) {
	if s.PendingRequest == nil || s.PendingRequest.RequestID != requestID {
		return PendingRequest{}, fmt.Errorf("%w: request_id=%s", ErrRequestNotFound, requestID)
	}
	entry := *s.PendingRequest
	s.PendingRequest = nil
	return entry, nil
}

// Validate checks structural invariants before a save or after a load.
func (s *Session) Validate(stepCount int) error {
	if s == nil {
		return ErrNilSession
	}
	if s.SessionID == "" {
		return ErrInvalidSession
	}
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex > stepCount {
		return fmt.Errorf("step index %d out of range [0,%d]", s.CurrentStepIndex, stepCount)
	}
	if s.Status == SessionComplete && s.CurrentStepIndex != stepCount {
		return fmt.Errorf("complete session must sit at index %d, got %d", stepCount, s.CurrentStepIndex)
	}
	if s.PendingRequest != nil {
		if s.PendingRequest.RequestID == "" || s.PendingRequest.StepName == "" {
			return errors.New("pending request must carry request_id and step_name")
		}
	}
	return nil
}
