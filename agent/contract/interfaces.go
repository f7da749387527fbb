package contract

import "context"

// StepAgent is the capability bound to one KYC step: given a prompt it
// produces text, either structured-decision JSON or natural language.
type StepAgent interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Registry owns the ordered step sequence and the agent bound to each
// step. Implementations are immutable after construction and safe for
// concurrent use.
type Registry interface {
	Steps() []StepName
	Agent(step StepName) (StepAgent, error)
}

// ToolGateway executes tool requests on behalf of a step's agent.
type ToolGateway interface {
	Execute(ctx context.Context, step StepName, reqs []ToolRequest) ([]ToolResult, error)
}
