// Package tool provides the per-step tool catalog and the gateway that
// executes tool requests on behalf of step agents.
package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	toolserverx "github.com/clearline-ai/kycflow/pkg/toolserver"
)

const (
	ToolCRMLookup      = "crm.lookup_customer"
	ToolCRMSave        = "crm.save_customer"
	ToolEligibility    = "eligibility.score"
	ToolKBSearch       = "knowledge_base.search"
	ToolDocumentsStore = "documents.store"
	ToolEmailSend      = "email.send"
)

// InfosForStep returns the tool schemas a step's model may call. Steps
// without tools get none bound.
func InfosForStep(step contractx.StepName) []*schema.ToolInfo {
	switch step {
	case contractx.StepVerification:
		return []*schema.ToolInfo{
			{
				Name: ToolCRMLookup,
				Desc: "Look up an existing customer record in the CRM by email.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"email": {Type: schema.String, Desc: "Customer email address", Required: true},
				}),
			},
		}
	case contractx.StepEligibility:
		return []*schema.ToolInfo{
			{
				Name: ToolEligibility,
				Desc: "Compute the eligibility score from income and employment status.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"income":            {Type: schema.Number, Desc: "Annual income", Required: true},
					"employment_status": {Type: schema.String, Desc: "Employment status", Required: false},
				}),
			},
		}
	case contractx.StepRecommendation:
		return []*schema.ToolInfo{
			{
				Name: ToolKBSearch,
				Desc: "Search the product knowledge base and return matching snippets.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "Natural language query", Required: true},
				}),
			},
		}
	case contractx.StepCompliance:
		return []*schema.ToolInfo{
			{
				Name: ToolDocumentsStore,
				Desc: "Archive a compliance summary document for the customer.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"customer_email": {Type: schema.String, Desc: "Customer email address", Required: true},
					"content":        {Type: schema.String, Desc: "Document content", Required: true},
				}),
			},
		}
	case contractx.StepAction:
		return []*schema.ToolInfo{
			{
				Name: ToolCRMSave,
				Desc: "Persist the approved customer profile in the CRM.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"email":   {Type: schema.String, Desc: "Customer email address", Required: true},
					"profile": {Type: schema.Object, Desc: "Customer profile fields", Required: true},
				}),
			},
			{
				Name: ToolEmailSend,
				Desc: "Send an email to the customer.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"to":      {Type: schema.String, Desc: "Recipient address", Required: true},
					"subject": {Type: schema.String, Desc: "Subject line", Required: true},
					"body":    {Type: schema.String, Desc: "Message body", Required: true},
				}),
			},
		}
	default:
		return nil
	}
}

// Gateway routes tool requests to their backends. Backend failures are
// reported inside the ToolResult so the agent can react; only transport
// setup problems surface as errors.
type Gateway struct {
	crm    *CRM
	kb     *KnowledgeBase
	remote *toolserverx.Client
}

func NewGateway(crm *CRM, kb *KnowledgeBase, remote *toolserverx.Client) *Gateway {
	return &Gateway{crm: crm, kb: kb, remote: remote}
}

func (g *Gateway) Execute(
	ctx context.Context,
	step contractx.StepName,
	reqs []contractx.ToolRequest,
) ([]contractx.ToolResult, error) {
	allowed := make(map[string]struct{})
	for _, info := range InfosForStep(step) {
		allowed[info.Name] = struct{}{}
	}

	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		if _, ok := allowed[req.Tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not allowed for step=%s", contractx.ErrValidation, req.Tool, step)
		}
		results = append(results, g.executeOne(ctx, req))
	}
	return results, nil
}

func (g *Gateway) executeOne(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	result, err := g.dispatch(ctx, req)
	if err != nil {
		log.Warn().
			Str("tool", req.Tool).
			Err(err).
			Msg("tool execution failed")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}
	}
	return contractx.ToolResult{Tool: req.Tool, Result: result}
}

func (g *Gateway) dispatch(ctx context.Context, req contractx.ToolRequest) (any, error) {
	switch req.Tool {
	case ToolCRMLookup:
		if g.crm == nil {
			return nil, fmt.Errorf("crm backend is not configured")
		}
		return g.crm.Lookup(ctx, stringArg(req.Args, "email"))
	case ToolCRMSave:
		if g.crm == nil {
			return nil, fmt.Errorf("crm backend is not configured")
		}
		return g.crm.Save(ctx, stringArg(req.Args, "email"), mapArg(req.Args, "profile"))
	case ToolEligibility:
		return ScoreEligibility(numberArg(req.Args, "income"), stringArg(req.Args, "employment_status")), nil
	case ToolKBSearch:
		if g.kb == nil {
			return nil, fmt.Errorf("knowledge base is not configured")
		}
		return g.kb.Search(ctx, stringArg(req.Args, "query"))
	case ToolDocumentsStore, ToolEmailSend:
		if g.remote == nil {
			return nil, fmt.Errorf("remote tool server is not configured")
		}
		return g.remote.Invoke(ctx, req.Tool, req.Args)
	default:
		return nil, fmt.Errorf("unknown tool %q", req.Tool)
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func numberArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func mapArg(args map[string]any, key string) map[string]any {
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}
