// Package router maps an incoming request to exactly one agent using
// classification plus deterministic fallback. Classification failures degrade
// to the default agent rather than retrying, keeping dispatch latency bounded
// and deterministic.
package router

import (
	"context"
	"fmt"
	"math"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"

	"golang.org/x/sync/errgroup"
)

// Result is a ranked classification outcome: labels best-first with parallel
// scores in [0,1]. Produced fresh per call; never persisted.
type Result struct {
	Labels []string
	Scores []float64
}

// Top returns the best label, or "" for an empty result.
func (r Result) Top() string {
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[0]
}

// Classifier scores a text snippet against a set of candidate labels.
// Implementations must not panic; soft failures return a best-effort result.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string, threshold float64) (Result, error)
}

// =============================================================================
// REMOTE CLASSIFIER (chat-completion label emission)
// =============================================================================

// LabelCompleter is the single-label completion contract the remote strategy
// needs from the backend.
type LabelCompleter interface {
	CompleteLabel(ctx context.Context, history []memory.Entry) (string, error)
}

// RemoteClassifier asks the generation backend to emit exactly one of the
// candidate labels. An exact match scores 1.0; anything else is a soft
// failure that falls back to the first label with score 0.0 - never an error.
type RemoteClassifier struct {
	backend LabelCompleter
}

// NewRemoteClassifier creates a remote classifier over the given backend.
func NewRemoteClassifier(backend LabelCompleter) *RemoteClassifier {
	return &RemoteClassifier{backend: backend}
}

// Classify submits the snippet with a zero-shot instruction and interprets
// the returned text as a label.
func (c *RemoteClassifier) Classify(ctx context.Context, text string, labels []string, threshold float64) (Result, error) {
	if len(labels) == 0 {
		return Result{}, fmt.Errorf("no candidate labels")
	}

	system := "You are a zero-shot classifier. Given a sentence, you must classify it into one of these categories: " +
		strings.Join(labels, ", ") + ". Answer with the category name only."

	history := []memory.Entry{
		{Role: memory.RoleSystem, Content: system},
		{Role: memory.RoleUser, Content: text},
	}

	classification, err := c.backend.CompleteLabel(ctx, history)
	if err != nil {
		logging.RoutingWarn("Remote classification failed: %v", err)
		return softFailure(labels), nil
	}
	classification = strings.TrimSpace(classification)

	for i, label := range labels {
		if classification == label {
			ordered := append([]string{label}, without(labels, i)...)
			scores := append([]float64{1.0}, make([]float64, len(labels)-1)...)
			logging.RoutingDebug("Remote classification: %q -> %s", truncate(text, 60), label)
			return Result{Labels: ordered, Scores: scores}, nil
		}
	}

	logging.RoutingWarn("Classification %q not found in labels", classification)
	return softFailure(labels), nil
}

func softFailure(labels []string) Result {
	return Result{Labels: []string{labels[0]}, Scores: []float64{0.0}}
}

func without(labels []string, skip int) []string {
	out := make([]string, 0, len(labels)-1)
	for i, l := range labels {
		if i != skip {
			out = append(out, l)
		}
	}
	return out
}

// =============================================================================
// LOCAL CLASSIFIER (embedding-based zero-shot scoring)
// =============================================================================

// Embedder is the batch-embedding contract the local strategy needs.
type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// LocalClassifier scores candidates by cosine similarity between the snippet
// embedding and each label embedding. It is a shared read-only scorer: safe
// for concurrent reads, never mutated after construction.
type LocalClassifier struct {
	embedder Embedder
	model    string
}

// NewLocalClassifier creates a local zero-shot classifier.
func NewLocalClassifier(embedder Embedder, model string) *LocalClassifier {
	return &LocalClassifier{embedder: embedder, model: model}
}

// Classify embeds the snippet and the candidate labels (in parallel), ranks
// labels by similarity, and normalizes scores into [0,1]. Embedding failures
// degrade to a uniform zero-score ranking rather than raising.
func (c *LocalClassifier) Classify(ctx context.Context, text string, labels []string, threshold float64) (Result, error) {
	if len(labels) == 0 {
		return Result{}, fmt.Errorf("no candidate labels")
	}

	timer := logging.StartTimer(logging.CategoryRouting, "LocalClassifier.Classify")
	defer timer.Stop()

	var queryEmbed []float32
	var labelEmbeds [][]float32

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.embedder.Embed(gctx, c.model, []string{text})
		if err != nil {
			return err
		}
		queryEmbed = out[0]
		return nil
	})
	g.Go(func() error {
		out, err := c.embedder.Embed(gctx, c.model, labels)
		if err != nil {
			return err
		}
		labelEmbeds = out
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.RoutingWarn("Local classification embedding failed: %v", err)
		return Result{Labels: append([]string(nil), labels...), Scores: make([]float64, len(labels))}, nil
	}

	type scored struct {
		label string
		score float64
	}
	candidates := make([]scored, 0, len(labels))
	for i, label := range labels {
		if i >= len(labelEmbeds) {
			break
		}
		sim := cosineSimilarity(queryEmbed, labelEmbeds[i])
		// Map [-1,1] similarity into [0,1].
		candidates = append(candidates, scored{label: label, score: (sim + 1) / 2})
	}

	// Stable insertion sort, descending by score. Registration order breaks
	// ties so the ranking is deterministic.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].score > candidates[j-1].score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	result := Result{
		Labels: make([]string, len(candidates)),
		Scores: make([]float64, len(candidates)),
	}
	for i, cand := range candidates {
		result.Labels[i] = cand.label
		result.Scores[i] = cand.score
	}

	logging.RoutingDebug("Local classification: %q -> %s (%.3f)", truncate(text, 60), result.Top(), result.Scores[0])
	return result, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NewClassifier wires the configured strategy.
func NewClassifier(strategy string, backend llm.Provider, embeddingModel string) (Classifier, error) {
	switch strategy {
	case "remote":
		completer, ok := backend.(LabelCompleter)
		if !ok {
			return nil, fmt.Errorf("provider %T does not support label completion", backend)
		}
		return NewRemoteClassifier(completer), nil
	case "local":
		embedder, ok := backend.(Embedder)
		if !ok {
			return nil, fmt.Errorf("provider %T does not support embeddings", backend)
		}
		return NewLocalClassifier(embedder, embeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q", strategy)
	}
}
