package agent

import (
	"context"
	"fmt"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/parser"
	"taskseek/internal/prompt"
)

const plannerFallbackPrompt = `You are a planning assistant coordinating specialist agents. Break the user's
request into ordered subtasks, one per line, in the form:

[describe the subtask here](role)

where role is one of: talk, code, files, web. Keep plans short; three to five
subtasks at most. After the subtask results come back, synthesize them into
one final answer for the user.`

// Dispatcher resolves a routing role to the agent that serves it. The router
// satisfies this without the planner importing it.
type Dispatcher interface {
	ByRole(role string) Agent
}

// Planner decomposes a complex request into subtasks and runs each through
// the specialist agent for its role, then synthesizes a combined answer.
type Planner struct {
	Base
	dispatcher Dispatcher
}

// NewPlanner builds the planning agent under the "plan" routing role.
func NewPlanner(provider llm.Provider, prompts *prompt.Store, dispatcher Dispatcher) *Planner {
	a := &Planner{
		Base:       NewBase("Planner Agent", "plan", "planner_agent", plannerFallbackPrompt, provider, prompts),
		dispatcher: dispatcher,
	}
	logging.Agents("Created %s (role=%s)", a.Name(), a.Role())
	return a
}

// subtask is one planned unit of work.
type subtask struct {
	Description string
	Role        string
}

// Process asks for a plan, executes each subtask through its role's agent,
// and runs one synthesis round over the collected results.
func (a *Planner) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query)

	planText, reasoning, err := a.think(ctx)
	if err != nil {
		return Result{}, err
	}

	plan := parsePlan(planText)
	if len(plan) == 0 {
		// No delegable subtasks; the plan text is the answer.
		return Result{Answer: planText, Reasoning: reasoning, Success: true}, nil
	}
	logging.Agents("%s produced %d subtasks", a.Name(), len(plan))

	var sb strings.Builder
	success := true
	for i, task := range plan {
		worker := a.dispatcher.ByRole(task.Role)
		if worker == nil {
			logging.AgentsError("No agent for role %q, skipping subtask %d", task.Role, i+1)
			fmt.Fprintf(&sb, "Subtask %d (%s): no agent available\n", i+1, task.Role)
			success = false
			continue
		}

		logging.Agents("Subtask %d/%d -> %s: %s", i+1, len(plan), worker.Name(), task.Description)
		res, err := worker.Process(ctx, task.Description)
		if err != nil {
			fmt.Fprintf(&sb, "Subtask %d (%s) failed: %v\n", i+1, task.Role, err)
			success = false
			continue
		}
		fmt.Fprintf(&sb, "Subtask %d (%s): %s\n", i+1, task.Role, res.Answer)
	}

	a.mem.Push(memory.RoleUser, "Subtask results:\n"+sb.String()+
		"\nSynthesize these into one final answer for the original request.")
	answer, reasoning, err := a.think(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Answer: answer, Reasoning: reasoning, Success: success}, nil
}

// parsePlan extracts [description](role) pairs from the plan text, keeping
// only roles a specialist can serve.
func parsePlan(text string) []subtask {
	known := map[string]bool{"talk": true, "code": true, "files": true, "web": true}

	var plan []subtask
	for _, field := range parser.ExtractForm(text) {
		role := strings.ToLower(strings.TrimSpace(field.Value))
		if !known[role] {
			logging.ParserDebug("Dropping subtask with unknown role %q", field.Value)
			continue
		}
		plan = append(plan, subtask{Description: field.Name, Role: role})
	}
	return plan
}
