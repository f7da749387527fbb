package coordinatornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

// GraphInput is one external call to the coordinator. RequestID is empty
// for start calls and carries the pending request id for resume calls.
type GraphInput struct {
	SessionID string
	RequestID string
	Text      string
}

type GraphOutput struct {
	Events []contractx.Event
}

// GraphState is threaded through the turn pipeline nodes.
type GraphState struct {
	SessionID string
	RequestID string
	Text      string
	Now       time.Time

	Session *statex.Session
	Step    contractx.StepName
	Events  []contractx.Event
}

func (g *GraphState) emit(e contractx.Event) {
	g.Events = append(g.Events, e)
}

// PrepareTurn validates the raw call shape.
func PrepareTurn(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is empty", contractx.ErrUsage)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", contractx.ErrUsage)
	}

	return &GraphState{
		SessionID: sessionID,
		RequestID: strings.TrimSpace(in.RequestID),
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
