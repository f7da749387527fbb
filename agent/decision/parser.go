// Package decision translates raw agent output into a Decision value.
//
// The translation fails open: anything that is not a JSON object carrying
// a known decision verb is treated as a question for the human, with the
// original text preserved as the prompt. Parsing never returns an error.
package decision

import (
	"encoding/json"
	"strings"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

type rawDecision struct {
	Decision      string          `json:"decision"`
	DataCollected *map[string]any `json:"data_collected"`
	Notes         string          `json:"notes"`
	Reason        string          `json:"reason"`
	UserMessage   string          `json:"user_message"`
}

// Parse interprets agent text as a structured decision when possible.
func Parse(text string) contractx.Decision {
	question := contractx.Decision{
		Kind:    contractx.DecisionQuestion,
		Message: text,
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return question
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return question
	}

	var kind contractx.DecisionKind
	switch raw.Decision {
	case string(contractx.DecisionPass):
		kind = contractx.DecisionPass
	case string(contractx.DecisionReview):
		kind = contractx.DecisionReview
	case string(contractx.DecisionFail):
		kind = contractx.DecisionFail
	default:
		// Valid JSON without a recognized decision verb still goes to
		// the human rather than failing silently.
		return question
	}

	d := contractx.Decision{
		Kind:   kind,
		Notes:  strings.TrimSpace(raw.Notes),
		Reason: strings.TrimSpace(raw.Reason),
	}
	if raw.DataCollected != nil {
		d.ExtractedData = *raw.DataCollected
	}
	d.Message = firstNonEmpty(d.Notes, d.Reason, strings.TrimSpace(raw.UserMessage))
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
