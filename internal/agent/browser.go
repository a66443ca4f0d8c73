package agent

import (
	"context"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/parser"
	"taskseek/internal/prompt"
)

const browserFallbackPrompt = `You are a web research assistant driving a real browser. Work step by step:

- To visit a page, end your reply with a line "action:" followed by the URL
  to open next. Only one URL per step.
- Record each fact you learn as its own line starting with "Note: ".
- To fill a login or search form, emit fields as [name](value) pairs.
- When the research is complete, reply without an action line and summarize
  your notes as the final answer.`

// Navigator is the page-loading capability the web agent drives. The
// browser.Driver satisfies it.
type Navigator interface {
	Navigate(ctx context.Context, url string) (string, error)
}

// Browser performs multi-step web research, navigating pages until the model
// stops requesting actions or the step budget runs out.
type Browser struct {
	Base
	nav      Navigator
	maxSteps int
}

// NewBrowser builds the web agent under the "web" routing role.
func NewBrowser(provider llm.Provider, prompts *prompt.Store, nav Navigator, maxSteps int) *Browser {
	if maxSteps <= 0 {
		maxSteps = 10
	}
	a := &Browser{
		Base:     NewBase("Browser Agent", "web", "browser_agent", browserFallbackPrompt, provider, prompts),
		nav:      nav,
		maxSteps: maxSteps,
	}
	logging.Agents("Created %s (role=%s, maxSteps=%d)", a.Name(), a.Role(), maxSteps)
	return a
}

// Process runs the navigate-observe loop. Each round the answer is parsed;
// if it carries an action with a link, the first link is loaded and the page
// outcome is pushed back as a user turn. Notes accumulate across rounds and
// the final round's answer closes the loop.
func (a *Browser) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query)

	var notes []string
	var answer, reasoning string
	var err error

	for step := 0; step < a.maxSteps; step++ {
		answer, reasoning, err = a.think(ctx)
		if err != nil {
			return Result{}, err
		}

		parsed := parser.Parse(answer)
		notes = append(notes, parsed.Notes...)

		if !parsed.HasAction {
			break
		}

		target := firstLink(parsed.Action)
		if target == "" {
			logging.BrowserWarn("Action without a link, stopping navigation: %q", parsed.Action)
			break
		}

		logging.Browser("Step %d: navigating to %s", step+1, target)
		outcome, navErr := a.nav.Navigate(ctx, target)
		if navErr != nil {
			outcome = "Navigation failed: " + navErr.Error()
			logging.BrowserWarn("Navigate %s failed: %v", target, navErr)
		}
		a.mem.Push(memory.RoleUser, outcome)
	}

	final := answer
	if len(notes) > 0 {
		final = answer + "\n\nCollected notes:\n- " + strings.Join(notes, "\n- ")
	}
	return Result{Answer: final, Reasoning: reasoning, Success: true}, nil
}

// firstLink returns the first URL-looking token in the action text, or the
// whole action when it is a single bare token.
func firstLink(action string) string {
	links := parser.ExtractLinks(action)
	if len(links) > 0 {
		return links[0]
	}
	fields := strings.Fields(action)
	if len(fields) == 1 {
		return fields[0]
	}
	return ""
}
