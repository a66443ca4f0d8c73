// Package interaction drives the query lifecycle: accept a query, route it,
// let the selected agent work, and persist the outcome. The loop is
// restartable; a failed cycle leaves it ready for the next query.
package interaction

import (
	"context"
	"errors"
	"io"
	"sync"

	"taskseek/internal/agent"
	"taskseek/internal/logging"
	"taskseek/internal/router"
	"taskseek/internal/session"
)

// State is the loop's position in the current cycle.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingQuery State = "awaiting_query"
	StateDispatching   State = "dispatching"
	StateExecuting     State = "executing"
	StateAnswering     State = "answering"
	StatePersisted     State = "persisted"
)

// Cycle is the outcome of one processed query.
type Cycle struct {
	Query     string
	AgentName string
	AgentRole string
	Result    agent.Result
	Record    session.Record
}

// QuerySource yields queries one at a time. Next returns io.EOF when the
// source is exhausted.
type QuerySource interface {
	Next(ctx context.Context) (string, error)
}

// Loop owns one router and optionally a session store.
type Loop struct {
	router *router.Router
	store  *session.Store

	mu    sync.Mutex
	state State
}

// New builds the loop. store may be nil to disable persistence.
func New(r *router.Router, store *session.Store) *Loop {
	return &Loop{router: r, store: store, state: StateIdle}
}

// State reports the loop's current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	logging.SessionDebug("Loop state -> %s", s)
}

// RunOnce processes a single query end to end. The outcome is persisted
// whether the agent succeeded or failed; persistence itself is best-effort
// and never masks the agent's error.
func (l *Loop) RunOnce(ctx context.Context, query string) (Cycle, error) {
	timer := logging.StartTimer(logging.CategorySession, "RunOnce")
	defer timer.Stop()

	l.setState(StateDispatching)
	selected := l.router.Select(ctx, query)

	cycle := Cycle{
		Query:     query,
		AgentName: selected.Name(),
		AgentRole: selected.Role(),
	}

	l.setState(StateExecuting)
	result, err := selected.Process(ctx, query)

	l.setState(StateAnswering)
	if err != nil {
		result = agent.Result{Answer: "error: " + err.Error(), Success: false}
	}
	cycle.Result = result

	cycle.Record = l.persist(ctx, cycle)
	l.setState(StatePersisted)

	if err != nil {
		l.setState(StateIdle)
		return cycle, err
	}
	l.setState(StateIdle)
	return cycle, nil
}

// persist writes the cycle to the store if one is configured. Failures are
// logged, not raised.
func (l *Loop) persist(ctx context.Context, cycle Cycle) session.Record {
	rec := session.Record{
		Query:     cycle.Query,
		AgentName: cycle.AgentName,
		AgentRole: cycle.AgentRole,
		Answer:    cycle.Result.Answer,
		Reasoning: cycle.Result.Reasoning,
		Success:   cycle.Result.Success,
	}
	if l.store == nil {
		return rec
	}

	saved, err := l.store.Append(ctx, rec)
	if err != nil {
		logging.SessionWarn("Failed to persist cycle: %v", err)
		return rec
	}
	return saved
}

// Run drains the source, processing each query in turn. sink, if non-nil,
// receives every completed cycle including failed ones. The loop stops on
// source exhaustion or context cancellation; an agent failure does not stop
// it.
func (l *Loop) Run(ctx context.Context, source QuerySource, sink func(Cycle)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.setState(StateAwaitingQuery)
		query, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			l.setState(StateIdle)
			return nil
		}
		if err != nil {
			l.setState(StateIdle)
			return err
		}
		if query == "" {
			continue
		}

		cycle, err := l.RunOnce(ctx, query)
		if err != nil {
			logging.SessionWarn("Cycle failed for query %q: %v", query, err)
		}
		if sink != nil {
			sink(cycle)
		}
	}
}
