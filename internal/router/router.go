package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskseek/internal/agent"
	"taskseek/internal/logging"
)

// Configuration errors, detected at construction and never at dispatch time.
var (
	ErrEmptyRoster   = errors.New("router: agent roster is empty")
	ErrDuplicateRole = errors.New("router: duplicate agent role")
)

// Router holds the agent roster and the classifier binding. The roster order
// is registration order and stays stable across calls, so default-fallback
// selection is deterministic.
type Router struct {
	agents     []agent.Agent
	labels     []string
	classifier Classifier
	threshold  float64
}

// New builds a router over the given roster. An empty roster or two agents
// sharing a role is a configuration error.
func New(agents []agent.Agent, classifier Classifier, threshold float64) (*Router, error) {
	if len(agents) == 0 {
		return nil, ErrEmptyRoster
	}

	labels := make([]string, 0, len(agents))
	seen := make(map[string]string, len(agents))
	for _, a := range agents {
		if prev, ok := seen[a.Role()]; ok {
			return nil, fmt.Errorf("%w: %q shared by %s and %s", ErrDuplicateRole, a.Role(), prev, a.Name())
		}
		seen[a.Role()] = a.Name()
		labels = append(labels, a.Role())
	}

	if threshold <= 0 {
		threshold = 0.5
	}

	logging.Routing("Router created with %d agents: %s", len(agents), strings.Join(labels, ", "))
	return &Router{
		agents:     agents,
		labels:     labels,
		classifier: classifier,
		threshold:  threshold,
	}, nil
}

// Agents returns the roster in registration order.
func (r *Router) Agents() []agent.Agent {
	return r.agents
}

// Labels returns the candidate label set in registration order.
func (r *Router) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Classify scores the query against the roster's roles. Only the first
// non-empty line is submitted - classification quality degrades on long
// multi-sentence input, and the first line is assumed to carry intent.
func (r *Router) Classify(ctx context.Context, text string) (Result, error) {
	snippet := firstLine(text)
	return r.classifier.Classify(ctx, snippet, r.Labels(), r.threshold)
}

// Select maps the query to exactly one agent. Classification failures and
// unregistered labels degrade to the first registered agent; the fallback is
// logged, never raised. No retries happen here.
func (r *Router) Select(ctx context.Context, text string) agent.Agent {
	result, err := r.Classify(ctx, text)
	if err != nil {
		logging.RoutingWarn("Classification error: %v, using default agent", err)
		return r.agents[0]
	}

	top := result.Top()
	for _, a := range r.agents {
		if a.Role() == top {
			logging.Routing("Selected agent: %s (role=%s)", a.Name(), a.Role())
			return a
		}
	}

	logging.RoutingWarn("No agent found for classification %q, using default agent %s", top, r.agents[0].Name())
	return r.agents[0]
}

// ByRole returns the agent registered under the given role, or nil.
func (r *Router) ByRole(role string) agent.Agent {
	for _, a := range r.agents {
		if a.Role() == role {
			return a
		}
	}
	return nil
}

// firstLine returns the first non-empty line of text, stripped. Falls back to
// the whole text when every line is blank.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if stripped := strings.TrimSpace(line); stripped != "" {
			return stripped
		}
	}
	return text
}
