// Package agent defines the agent contract and the concrete agent variants
// the router dispatches to. Every agent owns its own conversation memory and
// a reference to a shared generation provider; Process runs one full query
// to completion and returns the structured result.
package agent

import (
	"context"
	"fmt"
	"sync"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/prompt"
)

// Status reports what an agent is currently doing.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusReady    Status = "ready"
	StatusError    Status = "error"
)

// Result is the outcome of one processed query.
type Result struct {
	Answer    string
	Reasoning string
	Success   bool
}

// Agent is the contract the router and interaction loop work against.
type Agent interface {
	// Name is the unique display name of the agent instance.
	Name() string

	// Role is the routing label the classifier matches against.
	Role() string

	// Type identifies the agent variant (e.g. "casual_agent").
	Type() string

	// Memory exposes the agent's conversation history.
	Memory() *memory.Memory

	// Status reports the agent's current state.
	Status() Status

	// Process answers one query to completion. An error always comes with
	// StatusError; on success the result carries the final answer.
	Process(ctx context.Context, query string) (Result, error)
}

// Base carries the state and helpers shared by all agent variants.
// Variants embed it and implement Process.
type Base struct {
	name string
	role string

	// variant doubles as the prompt file base name under the prompts dir.
	variant        string
	fallbackPrompt string

	provider llm.Provider
	prompts  *prompt.Store
	mem      *memory.Memory

	mu            sync.Mutex
	status        Status
	lastAnswer    string
	lastReasoning string
}

// NewBase constructs the shared agent state. prompts may be nil, in which
// case the built-in fallback prompt is always used.
func NewBase(name, role, variant, fallbackPrompt string, provider llm.Provider, prompts *prompt.Store) Base {
	return Base{
		name:           name,
		role:           role,
		variant:        variant,
		fallbackPrompt: fallbackPrompt,
		provider:       provider,
		prompts:        prompts,
		mem:            memory.New(""),
		status:         StatusIdle,
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Role() string { return b.role }

func (b *Base) Type() string { return b.variant }

func (b *Base) Memory() *memory.Memory { return b.mem }

func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Base) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// LastAnswer returns the most recent generated answer.
func (b *Base) LastAnswer() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAnswer
}

// LastReasoning returns the reasoning trace of the most recent answer.
func (b *Base) LastReasoning() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReasoning
}

// systemPrompt resolves the current prompt text, preferring the prompt store
// so that an edited prompt file takes effect on the next query.
func (b *Base) systemPrompt() string {
	if b.prompts == nil {
		return b.fallbackPrompt
	}
	return b.prompts.Get(b.variant, b.fallbackPrompt)
}

// think sends the agent's memory to the provider, prefixed with the current
// system prompt, and pushes both sides of the exchange into memory.
// The user content must already be pushed by the caller.
func (b *Base) think(ctx context.Context) (answer, reasoning string, err error) {
	b.setStatus(StatusThinking)

	timer := logging.StartTimer(logging.CategoryAgents, b.name+".think")
	defer timer.Stop()

	history := append([]memory.Entry{
		{Role: memory.RoleSystem, Content: b.systemPrompt()},
	}, b.mem.Entries()...)

	answer, reasoning, err = b.provider.Respond(ctx, history)
	if err != nil {
		b.setStatus(StatusError)
		logging.AgentsError("%s generation failed: %v", b.name, err)
		return "", "", fmt.Errorf("%s failed to generate: %w", b.name, err)
	}

	b.mem.Push(memory.RoleAssistant, answer)

	b.mu.Lock()
	b.status = StatusReady
	b.lastAnswer = answer
	b.lastReasoning = reasoning
	b.mu.Unlock()
	logging.AgentsDebug("%s answered (%d chars, reasoning=%d chars)", b.name, len(answer), len(reasoning))
	return answer, reasoning, nil
}
