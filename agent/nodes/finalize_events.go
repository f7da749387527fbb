package coordinatornode

import (
	"fmt"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

// FinalizeEvents hands the accumulated event sequence to the caller.
// Every successful turn ends in exactly one of DataRequest, Complete or
// Failed, so an empty sequence means the transition loop misbehaved.
func FinalizeEvents(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Events) == 0 {
		return GraphOutput{}, fmt.Errorf("%w: turn produced no events", contractx.ErrValidation)
	}

	switch in.Events[len(in.Events)-1].(type) {
	case contractx.DataRequest, contractx.Complete, contractx.Failed:
	default:
		return GraphOutput{}, fmt.Errorf("%w: turn did not end in a pause or terminal event", contractx.ErrValidation)
	}

	return GraphOutput{Events: in.Events}, nil
}
