package router

import (
	"context"
	"errors"
	"math"
	"testing"

	"taskseek/internal/memory"

	"github.com/google/go-cmp/cmp"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) CompleteLabel(ctx context.Context, history []memory.Entry) (string, error) {
	return f.reply, f.err
}

func TestRemoteClassifierExactMatch(t *testing.T) {
	c := NewRemoteClassifier(&fakeCompleter{reply: "web"})

	result, err := c.Classify(context.Background(), "find me a hotel", []string{"talk", "code", "web"}, 0.5)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	want := Result{
		Labels: []string{"web", "talk", "code"},
		Scores: []float64{1.0, 0.0, 0.0},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteClassifierWhitespaceReply(t *testing.T) {
	c := NewRemoteClassifier(&fakeCompleter{reply: "  code\n"})

	result, err := c.Classify(context.Background(), "write a script", []string{"talk", "code"}, 0.5)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if result.Top() != "code" {
		t.Errorf("Top() = %q, want code", result.Top())
	}
}

func TestRemoteClassifierUnknownLabelSoftFails(t *testing.T) {
	c := NewRemoteClassifier(&fakeCompleter{reply: "banana"})

	result, err := c.Classify(context.Background(), "hello", []string{"talk", "code"}, 0.5)
	if err != nil {
		t.Fatalf("soft failure must not raise, got: %v", err)
	}
	if result.Top() != "talk" {
		t.Errorf("Top() = %q, want first label talk", result.Top())
	}
	if result.Scores[0] != 0.0 {
		t.Errorf("soft failure score = %v, want 0.0", result.Scores[0])
	}
}

func TestRemoteClassifierBackendErrorSoftFails(t *testing.T) {
	c := NewRemoteClassifier(&fakeCompleter{err: errors.New("backend down")})

	result, err := c.Classify(context.Background(), "hello", []string{"talk", "code"}, 0.5)
	if err != nil {
		t.Fatalf("backend error must degrade, got: %v", err)
	}
	if result.Top() != "talk" || result.Scores[0] != 0.0 {
		t.Errorf("got %+v, want talk with score 0.0", result)
	}
}

func TestRemoteClassifierNoLabels(t *testing.T) {
	c := NewRemoteClassifier(&fakeCompleter{reply: "talk"})
	if _, err := c.Classify(context.Background(), "hello", nil, 0.5); err == nil {
		t.Error("expected error for empty label set")
	}
}

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func TestLocalClassifierRanksBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"search the web": {1, 0, 0},
		"talk":           {0, 1, 0},
		"web":            {0.9, 0.1, 0},
		"code":           {0, 0, 1},
	}}
	c := NewLocalClassifier(embedder, "test-model")

	result, err := c.Classify(context.Background(), "search the web", []string{"talk", "web", "code"}, 0.5)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	if result.Top() != "web" {
		t.Errorf("Top() = %q, want web", result.Top())
	}
	for i := 1; i < len(result.Scores); i++ {
		if result.Scores[i] > result.Scores[i-1] {
			t.Errorf("scores not descending: %v", result.Scores)
		}
	}
	for _, score := range result.Scores {
		if score < 0 || score > 1 {
			t.Errorf("score %v out of [0,1]", score)
		}
	}
}

func TestLocalClassifierEmbedFailureDegrades(t *testing.T) {
	c := NewLocalClassifier(&fakeEmbedder{err: errors.New("quota")}, "test-model")

	result, err := c.Classify(context.Background(), "hello", []string{"talk", "code"}, 0.5)
	if err != nil {
		t.Fatalf("embedding failure must degrade, got: %v", err)
	}

	want := Result{Labels: []string{"talk", "code"}, Scores: []float64{0, 0}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"mismatched length", []float32{1, 2}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
