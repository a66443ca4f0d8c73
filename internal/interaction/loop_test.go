package interaction

import (
	"context"
	"errors"
	"io"
	"testing"

	"taskseek/internal/agent"
	"taskseek/internal/memory"
	"taskseek/internal/router"
	"taskseek/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubAgent struct {
	name   string
	role   string
	answer string
	err    error
	seen   []string
}

func (s *stubAgent) Name() string           { return s.name }
func (s *stubAgent) Role() string           { return s.role }
func (s *stubAgent) Type() string           { return s.role + "_agent" }
func (s *stubAgent) Memory() *memory.Memory { return nil }
func (s *stubAgent) Status() agent.Status   { return agent.StatusIdle }
func (s *stubAgent) Process(ctx context.Context, query string) (agent.Result, error) {
	s.seen = append(s.seen, query)
	if s.err != nil {
		return agent.Result{}, s.err
	}
	return agent.Result{Answer: s.answer, Success: true}, nil
}

type fixedClassifier struct {
	label string
}

func (f *fixedClassifier) Classify(ctx context.Context, text string, labels []string, threshold float64) (router.Result, error) {
	return router.Result{Labels: []string{f.label}, Scores: []float64{1}}, nil
}

func testLoop(t *testing.T, agents []agent.Agent, label string) (*Loop, *session.Store) {
	t.Helper()

	r, err := router.New(agents, &fixedClassifier{label: label}, 0.5)
	require.NoError(t, err)

	store, err := session.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(r, store), store
}

func TestRunOncePersistsSuccess(t *testing.T) {
	talker := &stubAgent{name: "Casual", role: "talk", answer: "hello"}
	loop, store := testLoop(t, []agent.Agent{talker}, "talk")

	cycle, err := loop.RunOnce(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "Casual", cycle.AgentName)
	assert.Equal(t, "hello", cycle.Result.Answer)
	assert.NotEmpty(t, cycle.Record.ID)
	assert.Equal(t, StateIdle, loop.State())

	records, err := store.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Success)
}

func TestRunOncePersistsFailureAndReturnsError(t *testing.T) {
	broken := &stubAgent{name: "Broken", role: "talk", err: errors.New("model exploded")}
	loop, store := testLoop(t, []agent.Agent{broken}, "talk")

	cycle, err := loop.RunOnce(context.Background(), "hi")
	require.Error(t, err)
	assert.False(t, cycle.Result.Success)

	// The failed cycle is still on record.
	records, err := store.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Contains(t, records[0].Answer, "model exploded")
}

func TestRunOnceRoutesToClassifiedAgent(t *testing.T) {
	talker := &stubAgent{name: "Casual", role: "talk", answer: "chat"}
	coder := &stubAgent{name: "Coder", role: "code", answer: "code"}
	loop, _ := testLoop(t, []agent.Agent{talker, coder}, "code")

	cycle, err := loop.RunOnce(context.Background(), "write a loop")
	require.NoError(t, err)

	assert.Equal(t, "Coder", cycle.AgentName)
	assert.Equal(t, []string{"write a loop"}, coder.seen)
	assert.Empty(t, talker.seen)
}

// sliceSource yields fixed queries then EOF.
type sliceSource struct {
	queries []string
	next    int
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if s.next >= len(s.queries) {
		return "", io.EOF
	}
	q := s.queries[s.next]
	s.next++
	return q, nil
}

func TestRunDrainsSourceAndSurvivesFailures(t *testing.T) {
	flaky := &stubAgent{name: "Flaky", role: "talk", err: errors.New("down")}
	loop, store := testLoop(t, []agent.Agent{flaky}, "talk")

	var cycles []Cycle
	err := loop.Run(context.Background(), &sliceSource{queries: []string{"one", "", "two"}}, func(c Cycle) {
		cycles = append(cycles, c)
	})
	require.NoError(t, err)

	// Blank queries are skipped; failures do not stop the loop.
	assert.Len(t, cycles, 2)
	assert.Equal(t, []string{"one", "two"}, flaky.seen)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, StateIdle, loop.State())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	talker := &stubAgent{name: "Casual", role: "talk", answer: "ok"}
	loop, _ := testLoop(t, []agent.Agent{talker}, "talk")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := loop.Run(ctx, &sliceSource{queries: []string{"never"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, talker.seen)
}

func TestLoopWithoutStore(t *testing.T) {
	talker := &stubAgent{name: "Casual", role: "talk", answer: "ok"}
	r, err := router.New([]agent.Agent{talker}, &fixedClassifier{label: "talk"}, 0.5)
	require.NoError(t, err)

	loop := New(r, nil)
	cycle, err := loop.RunOnce(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, cycle.Record.ID)
}
