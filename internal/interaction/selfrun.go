package interaction

import (
	"context"
	"fmt"
	"io"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/session"
)

const queryGenPrompt = `You are an expert at crafting queries for an AI assistant that autonomously
browses the web, writes code, plans tasks, and manages files.

Generate a single realistic user query. The query should:

- Be concise and explicit about the desired action (web search, coding, file
  management, planning).
- Include a specific output where relevant (e.g. save to a file with a clear
  name and path).
- Reflect a practical use case (research, programming, personal tasks).
- Be formatted as a single sentence.

Example:
Search the web for the best hiking trails in Colorado and save a list of
three trails with their locations in hiking_trails.txt`

// SyntheticSource generates queries with the provider itself, for unattended
// training-data runs. It yields at most Limit queries, then io.EOF.
type SyntheticSource struct {
	provider llm.Provider
	limit    int
	emitted  int
}

// NewSyntheticSource builds a source that generates up to limit queries.
func NewSyntheticSource(provider llm.Provider, limit int) *SyntheticSource {
	if limit <= 0 {
		limit = 10
	}
	return &SyntheticSource{provider: provider, limit: limit}
}

// Next asks the provider for one fresh query.
func (s *SyntheticSource) Next(ctx context.Context) (string, error) {
	if s.emitted >= s.limit {
		return "", io.EOF
	}

	history := []memory.Entry{
		{Role: memory.RoleSystem, Content: "You are a helpful assistant."},
		{Role: memory.RoleUser, Content: queryGenPrompt},
	}
	query, _, err := s.provider.Respond(ctx, history)
	if err != nil {
		return "", fmt.Errorf("failed to generate query: %w", err)
	}

	s.emitted++
	logging.Session("Generated query %d/%d: %s", s.emitted, s.limit, query)
	return query, nil
}

// SelfRun drives the loop over synthetic queries and archives the results:
// conversations exported per agent, then copied into the training data
// directory. Archiving also runs when the loop fails partway.
func (l *Loop) SelfRun(ctx context.Context, provider llm.Provider, count int, conversationsDir, trainingDir string) error {
	logging.Session("Starting self-run for %d queries", count)

	source := NewSyntheticSource(provider, count)
	runErr := l.Run(ctx, source, func(c Cycle) {
		logging.Session("Self-run cycle done (agent=%s, success=%v)", c.AgentName, c.Result.Success)
	})

	if l.store != nil {
		names := make([]string, 0, len(l.router.Agents()))
		for _, a := range l.router.Agents() {
			names = append(names, a.Name())
		}
		if _, err := l.store.ExportConversations(ctx, conversationsDir, names); err != nil {
			logging.SessionWarn("Conversation export failed: %v", err)
		} else if _, err := session.CopyTrainingData(conversationsDir, trainingDir); err != nil {
			logging.SessionWarn("Training data copy failed: %v", err)
		}
	}

	return runErr
}
