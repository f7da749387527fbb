package coordinator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/clearline-ai/kycflow/agent/nodes"
)

func (c *Coordinator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	stepCount := len(c.registry.Steps())

	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("prepare_turn",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.PrepareTurn(in, c.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node prepare_turn: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateState(ctx, in, c.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_state: %w", err)
	}

	if err := graph.AddLambdaNode("begin_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BeginTurn(in, c.registry.Steps())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node begin_turn: %w", err)
	}

	if err := graph.AddLambdaNode("run_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunTurn(ctx, in, c.registry, c.turnCfg)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_turn: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, c.store, stepCount)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_events",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeEvents(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_events: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prepare_turn"},
		{"prepare_turn", "load_or_create_state"},
		{"load_or_create_state", "begin_turn"},
		{"begin_turn", "run_turn"},
		{"run_turn", "save_state"},
		{"save_state", "finalize_events"},
		{"finalize_events", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("coordinator.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile coordinator graph: %w", err)
	}
	return runner, nil
}
