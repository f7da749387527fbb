package decision

import (
	"testing"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

func TestParsePassWithData(t *testing.T) {
	t.Parallel()

	d := Parse(`{"decision":"PASS","data_collected":{"name":"Alice"},"notes":"Intake complete"}`)
	if d.Kind != contractx.DecisionPass {
		t.Fatalf("expected PASS, got %s", d.Kind)
	}
	if d.ExtractedData == nil || d.ExtractedData["name"] != "Alice" {
		t.Fatalf("unexpected extracted data: %v", d.ExtractedData)
	}
	if d.Message != "Intake complete" {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestParsePassWithoutData(t *testing.T) {
	t.Parallel()

	d := Parse(`{"decision":"PASS"}`)
	if d.Kind != contractx.DecisionPass {
		t.Fatalf("expected PASS, got %s", d.Kind)
	}
	if d.ExtractedData != nil {
		t.Fatalf("expected nil extracted data when data_collected is absent, got %v", d.ExtractedData)
	}
}

func TestParseEmptyDataCollected(t *testing.T) {
	t.Parallel()

	d := Parse(`{"decision":"PASS","data_collected":{}}`)
	if d.ExtractedData == nil {
		t.Fatal("expected non-nil extracted data for empty data_collected object")
	}
	if len(d.ExtractedData) != 0 {
		t.Fatalf("expected empty extracted data, got %v", d.ExtractedData)
	}
}

func TestParseReviewUsesUserMessage(t *testing.T) {
	t.Parallel()

	d := Parse(`{"decision":"REVIEW","user_message":"What is your email?"}`)
	if d.Kind != contractx.DecisionReview {
		t.Fatalf("expected REVIEW, got %s", d.Kind)
	}
	if d.Message != "What is your email?" {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestParseMessagePriority(t *testing.T) {
	t.Parallel()

	// notes wins over reason, reason wins over user_message.
	d := Parse(`{"decision":"FAIL","reason":"ineligible","notes":"income too low","user_message":"sorry"}`)
	if d.Message != "income too low" {
		t.Fatalf("expected notes to win, got %q", d.Message)
	}
	if d.Reason != "ineligible" {
		t.Fatalf("reason not preserved: %q", d.Reason)
	}

	d = Parse(`{"decision":"FAIL","reason":"ineligible","user_message":"sorry"}`)
	if d.Message != "ineligible" {
		t.Fatalf("expected reason to win, got %q", d.Message)
	}
}

func TestParseFailOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
	}{
		{"plain text", "Can you confirm your address?"},
		{"empty string", ""},
		{"json array", `["PASS"]`},
		{"json number", `42`},
		{"missing decision field", `{"data_collected":{"a":1}}`},
		{"unknown decision value", `{"decision":"MAYBE"}`},
		{"non-string decision", `{"decision":123}`},
		{"truncated json", `{"decision":"PASS"`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Parse(tc.text)
			if d.Kind != contractx.DecisionQuestion {
				t.Fatalf("expected QUESTION, got %s", d.Kind)
			}
			if d.Message != tc.text {
				t.Fatalf("message must echo original text, got %q", d.Message)
			}
		})
	}
}
