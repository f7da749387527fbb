// Package kyc builds the step agents for the KYC sequence: one
// LLM-backed agent per step, each with its own system prompt and tool
// allowlist.
package kyc

import (
	"context"
	"fmt"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	llmx "github.com/clearline-ai/kycflow/agent/llm"
	promptx "github.com/clearline-ai/kycflow/agent/prompt"
	toolx "github.com/clearline-ai/kycflow/agent/tool"
)

type registryImpl struct {
	steps  []contractx.StepName
	agents map[contractx.StepName]contractx.StepAgent
}

func (r *registryImpl) Steps() []contractx.StepName {
	return r.steps
}

func (r *registryImpl) Agent(step contractx.StepName) (contractx.StepAgent, error) {
	a, ok := r.agents[step]
	if !ok {
		return nil, fmt.Errorf("no agent registered for step %q", step)
	}
	return a, nil
}

// NewRegistry wires one agent per workflow step. The sequence is fixed
// here and never changes per session.
func NewRegistry(ctx context.Context, cfg llmx.Config, gateway contractx.ToolGateway) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}

	prompts := promptx.LoadSet()
	steps := contractx.WorkflowSteps()

	agents := make(map[contractx.StepName]contractx.StepAgent, len(steps))
	for _, step := range steps {
		a, err := newStepAgent(ctx, step, cfg, prompts, gateway)
		if err != nil {
			return nil, err
		}
		agents[step] = a
	}

	return &registryImpl{
		steps:  steps,
		agents: agents,
	}, nil
}

func newStepAgent(
	ctx context.Context,
	step contractx.StepName,
	cfg llmx.Config,
	prompts promptx.Set,
	gateway contractx.ToolGateway,
) (*stepAgent, error) {
	systemPrompt, err := prompts.For(step)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	modelCfg := cfg.ModelFor(step)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create model for step=%s: %v", contractx.ErrModelInvoke, step, err)
	}

	tools := toolx.InfosForStep(step)
	allowed := make(map[string]struct{}, len(tools))
	if len(tools) > 0 {
		bound, err := chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for step=%s: %v", contractx.ErrModelInvoke, step, err)
		}
		chatModel = bound
		for _, t := range tools {
			if t != nil && t.Name != "" {
				allowed[t.Name] = struct{}{}
			}
		}
	}

	runner, err := compileChatGraph(ctx, chatModel, fmt.Sprintf("kyc.%s", step))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &stepAgent{
		step:         step,
		systemPrompt: systemPrompt,
		runner:       runner,
		gateway:      gateway,
		allowedTools: allowed,
	}, nil
}
