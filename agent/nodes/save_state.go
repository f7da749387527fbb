package coordinatornode

import (
	"context"
	"fmt"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

// SaveState persists the session after a successful turn. Failed
// dispatches never reach this node, which is what makes an identical
// retry safe: the stored state is byte-identical to what the call loaded.
func SaveState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	stepCount int,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(stepCount); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}
	return in, nil
}
