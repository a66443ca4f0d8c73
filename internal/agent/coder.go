package agent

import (
	"context"
	"fmt"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/prompt"
	"taskseek/internal/tools"
)

const coderFallbackPrompt = `You are a coding assistant. When a task needs code execution, emit the code
in a fenced block tagged with its language, for example:

` + "```python" + `
print("hello")
` + "```" + `

Use bash blocks for shell commands. The blocks will be executed and their
output returned to you. Keep explanations short and put all runnable work
inside fenced blocks.`

// codeBlock is one fenced block extracted from an answer.
type codeBlock struct {
	Language string
	Code     string
}

// Coder answers programming queries and executes the fenced code blocks it
// emits through the tool registry. A failed execution gets one corrective
// round: the output is fed back and the agent retries.
type Coder struct {
	Base
	registry *tools.Registry
}

// NewCoder builds the coding agent under the "code" routing role.
func NewCoder(provider llm.Provider, prompts *prompt.Store, registry *tools.Registry) *Coder {
	a := &Coder{
		Base:     NewBase("Coder Agent", "code", "coder_agent", coderFallbackPrompt, provider, prompts),
		registry: registry,
	}
	logging.Agents("Created %s (role=%s, tools=%v)", a.Name(), a.Role(), registry.Names())
	return a
}

// Process generates an answer, runs any fenced code blocks, and gives the
// agent one chance to correct a failed execution.
func (a *Coder) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query)

	answer, reasoning, err := a.think(ctx)
	if err != nil {
		return Result{}, err
	}

	const maxRounds = 2
	for round := 0; round < maxRounds; round++ {
		blocks := extractCodeBlocks(answer)
		if len(blocks) == 0 {
			return Result{Answer: answer, Reasoning: reasoning, Success: true}, nil
		}

		outputs, failed := a.runBlocks(ctx, blocks)
		if !failed {
			final := answer + "\n\nExecution output:\n" + outputs
			return Result{Answer: final, Reasoning: reasoning, Success: true}, nil
		}
		if round == maxRounds-1 {
			break
		}

		logging.Agents("%s execution failed, requesting correction", a.Name())
		a.mem.Push(memory.RoleUser, fmt.Sprintf(
			"The code failed to run. Output:\n%s\nFix the code and emit the corrected block.", outputs))

		answer, reasoning, err = a.think(ctx)
		if err != nil {
			return Result{}, err
		}
	}

	return Result{Answer: answer, Reasoning: reasoning, Success: false}, nil
}

// runBlocks executes each block with its interpreter tool and returns the
// combined outputs plus whether any block failed.
func (a *Coder) runBlocks(ctx context.Context, blocks []codeBlock) (string, bool) {
	var sb strings.Builder
	failed := false

	for i, block := range blocks {
		tool := a.registry.ForLanguage(block.Language)
		if tool == nil {
			logging.ToolsDebug("No interpreter for language %q, block skipped", block.Language)
			continue
		}

		out, err := tool.Execute(ctx, map[string]any{"code": block.Code})
		if err != nil {
			failed = true
			out = err.Error()
		} else if strings.Contains(out, "[exit error:") {
			failed = true
		}

		fmt.Fprintf(&sb, "[block %d, %s]\n%s\n", i+1, block.Language, out)
	}
	return strings.TrimSpace(sb.String()), failed
}

// extractCodeBlocks pulls fenced blocks with a language tag out of markdown
// text. Untagged fences are ignored since no interpreter can claim them.
func extractCodeBlocks(text string) []codeBlock {
	var blocks []codeBlock
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "```") {
			continue
		}
		lang := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "```")))
		if lang == "" {
			continue
		}

		var body []string
		closed := false
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				i = j
				closed = true
				break
			}
			body = append(body, lines[j])
		}
		if !closed {
			break
		}
		code := strings.TrimSpace(strings.Join(body, "\n"))
		if code != "" {
			blocks = append(blocks, codeBlock{Language: lang, Code: code})
		}
	}
	return blocks
}
