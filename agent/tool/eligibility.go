package tool

import "strings"

// EligibilityThreshold is the minimum score the eligibility agent treats
// as qualifying.
const EligibilityThreshold = 50

// ScoreEligibility computes a deterministic 0-100 eligibility score from
// annual income and employment status. The model interprets the score;
// the arithmetic stays out of the prompt so it cannot be hallucinated.
func ScoreEligibility(income float64, employmentStatus string) map[string]any {
	score := 0

	switch {
	case income >= 120000:
		score += 70
	case income >= 60000:
		score += 55
	case income >= 30000:
		score += 40
	case income > 0:
		score += 20
	}

	switch strings.ToLower(strings.TrimSpace(employmentStatus)) {
	case "employed", "self-employed":
		score += 30
	case "retired":
		score += 20
	case "student":
		score += 10
	}

	if score > 100 {
		score = 100
	}

	return map[string]any{
		"score":     score,
		"threshold": EligibilityThreshold,
		"eligible":  score >= EligibilityThreshold,
	}
}
