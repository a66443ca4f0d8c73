// Package llm wraps the text-generation backends agents talk to.
// A Provider receives the full ordered conversation history and returns the
// generated answer plus an optional reasoning trace. Providers may fail;
// agents surface that as an error status without retrying (retry policy, if
// any, lives inside the provider).
package llm

import (
	"context"
	"strings"

	"taskseek/internal/memory"
)

// Provider is the generation backend contract.
type Provider interface {
	// Respond generates a reply to the given conversation history.
	// Returns (answer, reasoning); reasoning may be empty.
	Respond(ctx context.Context, history []memory.Entry) (string, string, error)

	// Model returns the configured model identifier.
	Model() string
}

// splitReasoning separates a <think>...</think> block from the answer text.
// Models without a reasoning trace pass through untouched.
func splitReasoning(text string) (answer, reasoning string) {
	const open, close = "<think>", "</think>"

	start := strings.Index(text, open)
	if start < 0 {
		return strings.TrimSpace(text), ""
	}
	end := strings.Index(text, close)
	if end < start {
		// Unterminated block: treat everything after the marker as answer.
		return strings.TrimSpace(text[start+len(open):]), ""
	}

	reasoning = strings.TrimSpace(text[start+len(open) : end])
	answer = strings.TrimSpace(text[:start] + text[end+len(close):])
	return answer, reasoning
}
