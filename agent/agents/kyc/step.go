package kyc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
)

// maxToolRounds bounds the tool-call loop inside one agent invocation.
const maxToolRounds = 3

type stepAgent struct {
	step         contractx.StepName
	systemPrompt string
	runner       compose.Runnable[[]*schema.Message, *schema.Message]
	gateway      contractx.ToolGateway
	allowedTools map[string]struct{}
}

// Invoke runs one agent turn: prompt in, raw text out. Tool calls the
// model emits are executed through the gateway and their results fed
// back until the model produces plain content.
func (a *stepAgent) Invoke(ctx context.Context, prompt string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(a.systemPrompt),
		schema.UserMessage(prompt),
	}

	for round := 0; round <= maxToolRounds; round++ {
		msg, err := a.runner.Invoke(ctx, msgs)
		if err != nil {
			return "", fmt.Errorf("%w: step=%s: %v", contractx.ErrModelInvoke, a.step, err)
		}
		if msg == nil {
			return "", fmt.Errorf("%w: step=%s returned no message", contractx.ErrModelInvoke, a.step)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return "", fmt.Errorf("%w: step=%s returned empty content", contractx.ErrSchemaViolation, a.step)
			}
			return content, nil
		}

		reqs, err := a.toToolRequests(msg.ToolCalls)
		if err != nil {
			return "", err
		}

		results, err := a.gateway.Execute(ctx, a.step, reqs)
		if err != nil {
			return "", fmt.Errorf("%w: step=%s tool execution: %v", contractx.ErrModelInvoke, a.step, err)
		}

		msgs = append(msgs, msg)
		msgs = append(msgs, toolMessages(msg.ToolCalls, results)...)
	}

	return "", fmt.Errorf("%w: step=%s exceeded %d tool rounds", contractx.ErrSchemaViolation, a.step, maxToolRounds)
}

func (a *stepAgent) toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		if _, ok := a.allowedTools[name]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not allowed for step=%s", contractx.ErrSchemaViolation, name, a.step)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{Tool: name, Args: args})
	}
	return reqs, nil
}

func toolMessages(calls []schema.ToolCall, results []contractx.ToolResult) []*schema.Message {
	byTool := make(map[string]contractx.ToolResult, len(results))
	for _, r := range results {
		byTool[r.Tool] = r
	}

	msgs := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		result, ok := byTool[strings.TrimSpace(call.Function.Name)]
		if !ok {
			result = contractx.ToolResult{
				Tool:  call.Function.Name,
				Error: "tool produced no result",
			}
		}
		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"tool":%q,"error":"unserializable result"}`, result.Tool))
		}
		msgs = append(msgs, schema.ToolMessage(string(payload), call.ID))
	}
	return msgs
}
