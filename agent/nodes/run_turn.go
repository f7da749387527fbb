package coordinatornode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	"github.com/clearline-ai/kycflow/agent/decision"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

const (
	DefaultMaxChainDepth   = 16
	DefaultDispatchTimeout = 90 * time.Second

	defaultPassNotes    = "Step completed"
	defaultReviewPrompt = "Additional information needed"
	defaultFailReason   = "Step failed"
)

// TurnConfig bounds one external call. MaxChainDepth caps the number of
// agent dispatches a single PASS auto-chain may perform; DispatchTimeout
// applies to each dispatch individually.
type TurnConfig struct {
	MaxChainDepth   int
	DispatchTimeout time.Duration
}

func (c TurnConfig) withDefaults() TurnConfig {
	if c.MaxChainDepth <= 0 {
		c.MaxChainDepth = DefaultMaxChainDepth
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	return c
}

// RunTurn drives the session until it pauses for human input, terminates,
// or completes the sequence. PASS decisions chain through consecutive
// steps with a synthetic continuation message, so several agents may run
// within one call.
func RunTurn(
	ctx context.Context,
	in *GraphState,
	registry contractx.Registry,
	cfg TurnConfig,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	cfg = cfg.withDefaults()

	steps := registry.Steps()
	s := in.Session
	step := in.Step
	message := in.Text

	for hop := 0; ; hop++ {
		if hop >= cfg.MaxChainDepth {
			return nil, fmt.Errorf("%w: auto-chain limit of %d dispatches reached at step %s",
				contractx.ErrDispatch, cfg.MaxChainDepth, step)
		}

		agent, err := registry.Agent(step)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrDispatch, err)
		}

		prompt := BuildStepPrompt(s, step, s.CurrentStepIndex, len(steps), message)

		raw, err := invokeWithTimeout(ctx, agent, prompt, cfg.DispatchTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: step=%s: %v", contractx.ErrDispatch, step, err)
		}

		d := decision.Parse(raw)
		log.Debug().
			Str("session_id", s.SessionID).
			Str("step", string(step)).
			Str("kind", string(d.Kind)).
			Msg("agent decision")

		switch d.Kind {
		case contractx.DecisionPass:
			if d.ExtractedData != nil {
				conflicts := s.MergeData(d.ExtractedData)
				for _, field := range conflicts {
					log.Debug().
						Str("session_id", s.SessionID).
						Str("step", string(step)).
						Str("field", field).
						Msg("customer data field overwritten")
				}
				in.emit(contractx.CustomerDataUpdate{
					Step: step,
					Data: s.DataSnapshot(),
				})
			}

			notes := d.Message
			if notes == "" {
				notes = defaultPassNotes
			}

			s.CurrentStepIndex++
			if s.CurrentStepIndex >= len(steps) {
				s.Status = statex.SessionComplete
				in.emit(contractx.Complete{
					CustomerData: s.DataSnapshot(),
					Notes:        notes,
				})
				return in, nil
			}

			step = steps[s.CurrentStepIndex]
			message = fmt.Sprintf("Continue to %s step", step)

		case contractx.DecisionFail:
			reason := d.Reason
			if reason == "" {
				reason = defaultFailReason
			}
			s.Status = statex.SessionFailed
			in.emit(contractx.Failed{
				Step:   step,
				Reason: reason,
				Notes:  d.Notes,
			})
			return in, nil

		default: // REVIEW or QUESTION: pause at the current step.
			prompt := d.Message
			if prompt == "" {
				prompt = defaultReviewPrompt
			}
			rid, err := s.IssueRequest(string(step), prompt)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
			}
			in.emit(contractx.DataRequest{
				RequestID: rid,
				Step:      step,
				Prompt:    prompt,
			})
			return in, nil
		}
	}
}

func invokeWithTimeout(
	ctx context.Context,
	agent contractx.StepAgent,
	prompt string,
	timeout time.Duration,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return agent.Invoke(ctx, prompt)
}

// BuildStepPrompt embeds the accumulated customer data, the stage, and
// the sequence position around the user's message.
func BuildStepPrompt(
	s *statex.Session,
	step contractx.StepName,
	stepIndex int,
	stepCount int,
	message string,
) string {
	customer := "No customer data yet"
	if len(s.CustomerData) > 0 {
		if raw, err := json.MarshalIndent(s.CustomerData, "", "  "); err == nil {
			customer = string(raw)
		}
	}

	return fmt.Sprintf(`Customer Information:
%s

Current Stage: %s
Progress: Step %d of %d

User Message: %s

Please process this information and respond with your JSON decision or ask for missing information.`,
		customer, step, stepIndex+1, stepCount, message)
}
