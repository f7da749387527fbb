package coordinatornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

func LoadOrCreateState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	s, err := store.Load(ctx, in.SessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		s = statex.NewSession(in.SessionID, in.Now)
	}
	s.EnsureDataMap()

	in.Session = s
	return in, nil
}
