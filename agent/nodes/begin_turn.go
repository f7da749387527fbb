package coordinatornode

import (
	"fmt"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

// BeginTurn decides which step receives the message and enforces the
// pending-request discipline: a session with an outstanding data request
// only accepts the resume call that answers it.
func BeginTurn(in *GraphState, steps []contractx.StepName) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	s := in.Session
	if s.Status != statex.SessionActive {
		return nil, fmt.Errorf("%w: session %s is %s; no further turns are accepted",
			contractx.ErrUsage, s.SessionID, s.Status)
	}

	if in.RequestID == "" {
		if s.PendingRequest != nil {
			return nil, fmt.Errorf("%w: session %s has outstanding data request %s; answer it via resume",
				contractx.ErrUsage, s.SessionID, s.PendingRequest.RequestID)
		}
		in.Step = steps[s.CurrentStepIndex]
		return in, nil
	}

	entry, err := s.TakeRequest(in.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrUsage, err)
	}

	// The ledger records the issuing step; in this design a pause never
	// advances the index, so both must agree.
	current := steps[s.CurrentStepIndex]
	if entry.StepName != string(current) {
		return nil, fmt.Errorf("%w: pending request step %q does not match current step %q",
			contractx.ErrValidation, entry.StepName, current)
	}

	in.Step = current
	return in, nil
}
