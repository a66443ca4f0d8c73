package agent

import (
	"context"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/prompt"
)

const casualFallbackPrompt = `You are a friendly, concise assistant. Answer the user's question directly
in plain language. Do not use tools, do not browse, do not write code unless
explicitly asked for a short illustrative snippet.`

// Casual handles conversation and general questions with no tool use.
type Casual struct {
	Base
}

// NewCasual builds the conversational agent under the "talk" routing role.
func NewCasual(provider llm.Provider, prompts *prompt.Store) *Casual {
	a := &Casual{
		Base: NewBase("Casual Agent", "talk", "casual_agent", casualFallbackPrompt, provider, prompts),
	}
	logging.Agents("Created %s (role=%s)", a.Name(), a.Role())
	return a
}

// Process generates a single reply with no follow-up rounds.
func (a *Casual) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query)

	answer, reasoning, err := a.think(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Answer: answer, Reasoning: reasoning, Success: true}, nil
}
