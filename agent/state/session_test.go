package state

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndTakeRequest(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", time.Now())

	rid, err := s.IssueRequest("verification", "Need your document number")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rid == "" {
		t.Fatal("expected a request id")
	}

	// A second issue while one is outstanding is a ledger bug.
	if _, err := s.IssueRequest("verification", "again"); !errors.Is(err, ErrRequestOutstanding) {
		t.Fatalf("expected ErrRequestOutstanding, got %v", err)
	}

	entry, err := s.TakeRequest(rid)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if entry.StepName != "verification" || entry.Prompt != "Need your document number" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if s.PendingRequest != nil {
		t.Fatal("take must clear the pending request")
	}

	// Taking twice, or with the wrong id, fails the same way.
	if _, err := s.TakeRequest(rid); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound on reuse, got %v", err)
	}
}

func TestTakeRequestMismatch(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", time.Now())
	if _, err := s.IssueRequest("intake", "name?"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := s.TakeRequest("not-the-id"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if s.PendingRequest == nil {
		t.Fatal("mismatched take must leave the pending request in place")
	}
}

func TestMergeDataLastWriteWins(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", time.Now())
	s.MergeData(map[string]any{"name": "Alice", "income": 50000})

	conflicts := s.MergeData(map[string]any{"income": 60000, "email": "a@b.c"})
	if len(conflicts) != 1 || conflicts[0] != "income" {
		t.Fatalf("expected income conflict, got %v", conflicts)
	}
	if s.CustomerData["income"] != 60000 {
		t.Fatalf("later write must win: %v", s.CustomerData["income"])
	}
	if s.CustomerData["name"] != "Alice" || s.CustomerData["email"] != "a@b.c" {
		t.Fatalf("fields must accumulate: %v", s.CustomerData)
	}
}

func TestMergeDataSameValueNoConflict(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", time.Now())
	s.MergeData(map[string]any{"name": "Alice"})
	if conflicts := s.MergeData(map[string]any{"name": "Alice"}); conflicts != nil {
		t.Fatalf("re-writing the same value is not a conflict: %v", conflicts)
	}
}

func TestDataSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", time.Now())
	s.MergeData(map[string]any{"name": "Alice"})

	snap := s.DataSnapshot()
	snap["name"] = "Mallory"
	if s.CustomerData["name"] != "Alice" {
		t.Fatal("snapshot must not alias session data")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cases := []struct {
		name    string
		session *Session
		wantErr bool
	}{
		{"fresh session", NewSession("s1", now), false},
		{"empty id", NewSession("", now), true},
		{"negative index", &Session{SessionID: "s1", CurrentStepIndex: -1, Status: SessionActive}, true},
		{"index past end", &Session{SessionID: "s1", CurrentStepIndex: 7, Status: SessionActive}, true},
		{"complete at end", &Session{SessionID: "s1", CurrentStepIndex: 6, Status: SessionComplete}, false},
		{"complete mid-flow", &Session{SessionID: "s1", CurrentStepIndex: 3, Status: SessionComplete}, true},
		{"pending without id", &Session{SessionID: "s1", Status: SessionActive, PendingRequest: &PendingRequest{StepName: "intake"}}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.session.Validate(6)
			if tc.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
