package router

import (
	"context"
	"errors"
	"testing"

	"taskseek/internal/agent"
	"taskseek/internal/memory"
)

type stubAgent struct {
	name string
	role string
}

func (s *stubAgent) Name() string           { return s.name }
func (s *stubAgent) Role() string           { return s.role }
func (s *stubAgent) Type() string           { return s.role + "_agent" }
func (s *stubAgent) Memory() *memory.Memory { return nil }
func (s *stubAgent) Status() agent.Status   { return agent.StatusIdle }
func (s *stubAgent) Process(ctx context.Context, query string) (agent.Result, error) {
	return agent.Result{Answer: s.name + " handled it", Success: true}, nil
}

type stubClassifier struct {
	result  Result
	err     error
	sawText string
}

func (s *stubClassifier) Classify(ctx context.Context, text string, labels []string, threshold float64) (Result, error) {
	s.sawText = text
	return s.result, s.err
}

func roster() []agent.Agent {
	return []agent.Agent{
		&stubAgent{name: "Casual", role: "talk"},
		&stubAgent{name: "Coder", role: "code"},
		&stubAgent{name: "Browser", role: "web"},
	}
}

func TestNewEmptyRoster(t *testing.T) {
	if _, err := New(nil, &stubClassifier{}, 0.5); !errors.Is(err, ErrEmptyRoster) {
		t.Errorf("New(nil) = %v, want ErrEmptyRoster", err)
	}
}

func TestNewDuplicateRole(t *testing.T) {
	agents := []agent.Agent{
		&stubAgent{name: "A", role: "talk"},
		&stubAgent{name: "B", role: "talk"},
	}
	if _, err := New(agents, &stubClassifier{}, 0.5); !errors.Is(err, ErrDuplicateRole) {
		t.Errorf("New with duplicate roles = %v, want ErrDuplicateRole", err)
	}
}

func TestSelectPicksTopLabel(t *testing.T) {
	classifier := &stubClassifier{result: Result{Labels: []string{"web", "talk", "code"}, Scores: []float64{1, 0, 0}}}
	r, err := New(roster(), classifier, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	selected := r.Select(context.Background(), "find flights to Lisbon")
	if selected.Role() != "web" {
		t.Errorf("Select routed to %q, want web", selected.Role())
	}
}

func TestSelectFallsBackOnError(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("boom")}
	r, err := New(roster(), classifier, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	selected := r.Select(context.Background(), "anything")
	if selected.Role() != "talk" {
		t.Errorf("error fallback routed to %q, want first agent talk", selected.Role())
	}
}

func TestSelectFallsBackOnUnknownLabel(t *testing.T) {
	classifier := &stubClassifier{result: Result{Labels: []string{"plan"}, Scores: []float64{1}}}
	r, err := New(roster(), classifier, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	selected := r.Select(context.Background(), "anything")
	if selected.Role() != "talk" {
		t.Errorf("unknown label routed to %q, want first agent talk", selected.Role())
	}
}

func TestClassifySubmitsFirstLine(t *testing.T) {
	classifier := &stubClassifier{result: Result{Labels: []string{"talk"}, Scores: []float64{1}}}
	r, err := New(roster(), classifier, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, _ = r.Classify(context.Background(), "\n\n  what is the weather  \nsecond line ignored")
	if classifier.sawText != "what is the weather" {
		t.Errorf("classifier saw %q, want first non-empty line", classifier.sawText)
	}
}

func TestByRole(t *testing.T) {
	r, err := New(roster(), &stubClassifier{}, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if a := r.ByRole("code"); a == nil || a.Name() != "Coder" {
		t.Errorf("ByRole(code) = %v, want Coder", a)
	}
	if a := r.ByRole("nope"); a != nil {
		t.Errorf("ByRole(nope) = %v, want nil", a)
	}
}
