package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

var (
	//go:embed template/intake.txt
	intakeRaw string

	//go:embed template/verification.txt
	verificationRaw string

	//go:embed template/eligibility.txt
	eligibilityRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/compliance.txt
	complianceRaw string

	//go:embed template/action.txt
	actionRaw string
)

// Set holds the system prompt for every KYC step.
type Set struct {
	prompts map[contractx.StepName]string
}

// LoadSet returns the embedded prompts, trimmed. Safe to call
// concurrently; the embed is compile-time.
func LoadSet() Set {
	return Set{
		prompts: map[contractx.StepName]string{
			contractx.StepIntake:         strings.TrimSpace(intakeRaw),
			contractx.StepVerification:   strings.TrimSpace(verificationRaw),
			contractx.StepEligibility:    strings.TrimSpace(eligibilityRaw),
			contractx.StepRecommendation: strings.TrimSpace(recommendationRaw),
			contractx.StepCompliance:     strings.TrimSpace(complianceRaw),
			contractx.StepAction:         strings.TrimSpace(actionRaw),
		},
	}
}

// For returns the system prompt for a step.
func (s Set) For(step contractx.StepName) (string, error) {
	p, ok := s.prompts[step]
	if !ok || p == "" {
		return "", fmt.Errorf("no prompt for step %q", step)
	}
	return p, nil
}
