// Package coordinator drives a KYC session through the fixed step
// sequence one agent turn at a time, pausing for human input when a step
// asks a question and persisting progress between calls.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	nodex "github.com/clearline-ai/kycflow/agent/nodes"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

type Config struct {
	MaxChainDepth   int
	DispatchTimeout time.Duration
}

type Coordinator struct {
	store    statex.Store
	registry contractx.Registry
	turnCfg  nodex.TurnConfig

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time

	// Guards same-session calls racing each other; the source system's
	// session map had no such protection. Cross-session calls stay
	// fully concurrent.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store statex.Store, registry contractx.Registry, cfg Config) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if registry == nil {
		return nil, errors.New("step registry is required")
	}
	if len(registry.Steps()) == 0 {
		return nil, errors.New("step registry has no steps")
	}

	c := &Coordinator{
		store:    store,
		registry: registry,
		turnCfg: nodex.TurnConfig{
			MaxChainDepth:   cfg.MaxChainDepth,
			DispatchTimeout: cfg.DispatchTimeout,
		},
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}

	graphRunner, err := c.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// Start begins or continues a session with a fresh user message. Calling
// Start while a data request is outstanding is a usage error; the reply
// belongs to Resume.
func (c *Coordinator) Start(ctx context.Context, sessionID, message string) ([]contractx.Event, error) {
	return c.runTurn(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      message,
	})
}

// Resume delivers the human's answer to the identified data request and
// continues the turn at the step that asked.
func (c *Coordinator) Resume(ctx context.Context, sessionID, requestID, reply string) ([]contractx.Event, error) {
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is empty", contractx.ErrUsage)
	}
	return c.runTurn(ctx, nodex.GraphInput{
		SessionID: sessionID,
		RequestID: requestID,
		Text:      reply,
	})
}

func (c *Coordinator) runTurn(ctx context.Context, in nodex.GraphInput) ([]contractx.Event, error) {
	if in.SessionID != "" {
		lock := c.sessionLock(in.SessionID)
		lock.Lock()
		defer lock.Unlock()
	}

	out, err := c.graphRunner.Invoke(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Coordinator) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[sessionID] = lock
	}
	return lock
}
