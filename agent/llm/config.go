package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	openrouterx "github.com/clearline-ai/kycflow/pkg/openrouter"
)

// Config holds the shared model endpoint plus optional per-step overrides.
// A step without an override runs on the default model.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	EmbeddingModel     string        `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`

	IntakeModel         string `envconfig:"INTAKE_MODEL" split_words:"true"`
	VerificationModel   string `envconfig:"VERIFICATION_MODEL" split_words:"true"`
	EligibilityModel    string `envconfig:"ELIGIBILITY_MODEL" split_words:"true"`
	RecommendationModel string `envconfig:"RECOMMENDATION_MODEL" split_words:"true"`
	ComplianceModel     string `envconfig:"COMPLIANCE_MODEL" split_words:"true"`
	ActionModel         string `envconfig:"ACTION_MODEL" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ModelFor resolves the endpoint config for one step.
func (c Config) ModelFor(step contractx.StepName) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)

	override := ""
	switch step {
	case contractx.StepIntake:
		override = c.IntakeModel
	case contractx.StepVerification:
		override = c.VerificationModel
	case contractx.StepEligibility:
		override = c.EligibilityModel
	case contractx.StepRecommendation:
		override = c.RecommendationModel
	case contractx.StepCompliance:
		override = c.ComplianceModel
	case contractx.StepAction:
		override = c.ActionModel
	}
	if v := strings.TrimSpace(override); v != "" {
		modelName = v
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		EmbeddingModel:     strings.TrimSpace(c.EmbeddingModel),
	}
}
