package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskseek/internal/config"
	"taskseek/internal/memory"
	"taskseek/internal/tools"

	"github.com/google/go-cmp/cmp"
)

// scriptedProvider returns canned responses in order, then repeats the last
// one. It records every history it was shown.
type scriptedProvider struct {
	responses []string
	err       error
	calls     [][]memory.Entry
}

func (p *scriptedProvider) Respond(ctx context.Context, history []memory.Entry) (string, string, error) {
	p.calls = append(p.calls, history)
	if p.err != nil {
		return "", "", p.err
	}
	i := len(p.calls) - 1
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], "", nil
}

func (p *scriptedProvider) Model() string { return "scripted" }

func TestCasualProcess(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Hello there!"}}
	a := NewCasual(provider, nil)

	res, err := a.Process(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Answer != "Hello there!" || !res.Success {
		t.Errorf("result = %+v", res)
	}
	if a.Status() != StatusReady {
		t.Errorf("status = %s, want ready", a.Status())
	}

	// Memory holds the exchange; the system prompt is injected per request
	// and never stored.
	entries := a.Memory().Entries()
	if len(entries) != 2 {
		t.Fatalf("memory has %d entries, want 2", len(entries))
	}
	if entries[0].Role != memory.RoleUser || entries[1].Role != memory.RoleAssistant {
		t.Errorf("memory roles = %v, %v", entries[0].Role, entries[1].Role)
	}

	// The provider must see the system prompt first.
	if len(provider.calls) != 1 || provider.calls[0][0].Role != memory.RoleSystem {
		t.Error("provider did not receive a leading system entry")
	}
}

func TestCasualProcessProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("backend down")}
	a := NewCasual(provider, nil)

	if _, err := a.Process(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if a.Status() != StatusError {
		t.Errorf("status = %s, want error", a.Status())
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	text := "Here is the fix:\n" +
		"```python\nprint('hi')\n```\n" +
		"and a command:\n" +
		"```bash\nls -la\n```\n" +
		"```\nuntagged, ignored\n```\n"

	got := extractCodeBlocks(text)
	want := []codeBlock{
		{Language: "python", Code: "print('hi')"},
		{Language: "bash", Code: "ls -la"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(codeBlock{})); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCodeBlocksUnclosedFence(t *testing.T) {
	if got := extractCodeBlocks("```python\nprint('hi')"); got != nil {
		t.Errorf("unclosed fence yielded %v, want nil", got)
	}
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	return tools.DefaultRegistry(config.ExecutionConfig{
		AllowedBinaries: []string{"bash", "python3"},
		DefaultTimeout:  "10s",
	})
}

func TestCoderRunsBlocks(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Counting files:\n```bash\necho 42\n```",
	}}
	a := NewCoder(provider, nil, testRegistry(t))

	res, err := a.Process(context.Background(), "count something")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Errorf("result not successful: %+v", res)
	}
	if !strings.Contains(res.Answer, "42") {
		t.Errorf("answer %q missing execution output", res.Answer)
	}
}

func TestCoderCorrectiveRound(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```bash\nexit 1\n```",
		"Fixed:\n```bash\necho ok\n```",
	}}
	a := NewCoder(provider, nil, testRegistry(t))

	res, err := a.Process(context.Background(), "do it")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Errorf("corrected run not successful: %+v", res)
	}
	if len(provider.calls) != 2 {
		t.Errorf("provider called %d times, want 2", len(provider.calls))
	}
}

func TestCoderGivesUpAfterCorrection(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"```bash\nexit 1\n```",
	}}
	a := NewCoder(provider, nil, testRegistry(t))

	res, err := a.Process(context.Background(), "do it")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Success {
		t.Error("persistently failing execution reported success")
	}
}

func TestFileRunsFindDirective(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "budget_2026.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	registry := tools.DefaultRegistry(config.ExecutionConfig{
		AllowedBinaries:  []string{"bash", "python3"},
		DefaultTimeout:   "10s",
		WorkingDirectory: dir,
	})

	provider := &scriptedProvider{responses: []string{
		"Let me look.\nfind: budget",
		"Found it at budget_2026.xlsx.",
	}}
	a := NewFile(provider, nil, registry)

	res, err := a.Process(context.Background(), "where is the budget file")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(res.Answer, "budget_2026.xlsx") {
		t.Errorf("answer = %q", res.Answer)
	}

	// The summary round must have seen the finder output.
	last := provider.calls[1]
	feedback := last[len(last)-1].Content
	if !strings.Contains(feedback, "budget_2026.xlsx") {
		t.Errorf("summary prompt missing tool output: %q", feedback)
	}
}

func TestFileNoDirectivesAnswersDirectly(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Your files live under ~/documents."}}
	a := NewFile(provider, nil, testRegistry(t))

	res, err := a.Process(context.Background(), "where do files go")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Answer != "Your files live under ~/documents." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(provider.calls) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.calls))
	}
}

type fakeNavigator struct {
	outcomes map[string]string
	visited  []string
}

func (f *fakeNavigator) Navigate(ctx context.Context, url string) (string, error) {
	f.visited = append(f.visited, url)
	if out, ok := f.outcomes[url]; ok {
		return out, nil
	}
	return "", errors.New("unreachable")
}

func TestBrowserNavigatesUntilDone(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Note: starting research\naction:\nwww.example.org/a",
		"Note: found the opening hours\nAll done, open 9am to 5pm.",
	}}
	nav := &fakeNavigator{outcomes: map[string]string{
		"www.example.org/a": "Page loaded: a",
	}}
	a := NewBrowser(provider, nil, nav, 5)

	res, err := a.Process(context.Background(), "when does the museum open")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(nav.visited) != 1 || nav.visited[0] != "www.example.org/a" {
		t.Errorf("visited = %v", nav.visited)
	}
	if !strings.Contains(res.Answer, "starting research") || !strings.Contains(res.Answer, "found the opening hours") {
		t.Errorf("answer missing collected notes: %q", res.Answer)
	}
}

func TestBrowserRespectsStepBudget(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"action:\nwww.loop.test/page",
	}}
	nav := &fakeNavigator{outcomes: map[string]string{
		"www.loop.test/page": "same page again",
	}}
	a := NewBrowser(provider, nil, nav, 3)

	if _, err := a.Process(context.Background(), "loop forever"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(nav.visited) != 3 {
		t.Errorf("visited %d pages, want step budget 3", len(nav.visited))
	}
}

type fakeDispatcher struct {
	agents map[string]Agent
}

func (f *fakeDispatcher) ByRole(role string) Agent { return f.agents[role] }

type echoAgent struct {
	Base
}

func (e *echoAgent) Process(ctx context.Context, query string) (Result, error) {
	return Result{Answer: "did: " + query, Success: true}, nil
}

func TestPlannerDelegatesSubtasks(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"[look up the weather](web)\n[write the report](code)",
		"Final combined answer.",
	}}
	worker := &echoAgent{Base: NewBase("Echo", "web", "", "", provider, nil)}
	coder := &echoAgent{Base: NewBase("Echo2", "code", "", "", provider, nil)}
	a := NewPlanner(provider, nil, &fakeDispatcher{agents: map[string]Agent{"web": worker, "code": coder}})

	res, err := a.Process(context.Background(), "weather report")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Answer != "Final combined answer." || !res.Success {
		t.Errorf("result = %+v", res)
	}

	// The synthesis round must have seen both subtask results.
	last := provider.calls[len(provider.calls)-1]
	synthesis := last[len(last)-1].Content
	if !strings.Contains(synthesis, "did: look up the weather") || !strings.Contains(synthesis, "did: write the report") {
		t.Errorf("synthesis prompt missing subtask results: %q", synthesis)
	}
}

func TestPlannerNoSubtasksAnswersDirectly(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Nothing to delegate, here is the answer."}}
	a := NewPlanner(provider, nil, &fakeDispatcher{})

	res, err := a.Process(context.Background(), "simple question")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Answer != "Nothing to delegate, here is the answer." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(provider.calls) != 1 {
		t.Errorf("provider called %d times, want 1", len(provider.calls))
	}
}

func TestParsePlanFiltersUnknownRoles(t *testing.T) {
	plan := parsePlan("[task one](web)\n[task two](dance)\n[task three](CODE)")

	want := []subtask{
		{Description: "task one", Role: "web"},
		{Description: "task three", Role: "code"},
	}
	if diff := cmp.Diff(want, plan, cmp.AllowUnexported(subtask{})); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractToolCall(t *testing.T) {
	answer := "Let me check.\n```json\n{\"tool\": \"get_weather\", \"arguments\": {\"city\": \"Paris\"}}\n```"

	name, args, ok := extractToolCall(answer)
	if !ok {
		t.Fatal("extractToolCall found nothing")
	}
	if name != "get_weather" {
		t.Errorf("name = %q", name)
	}
	if args["city"] != "Paris" {
		t.Errorf("args = %v", args)
	}
}

func TestExtractToolCallIgnoresPlainJSON(t *testing.T) {
	answer := "```json\n{\"city\": \"Paris\"}\n```"
	if _, _, ok := extractToolCall(answer); ok {
		t.Error("json without a tool field treated as invocation")
	}
}
