package agent

import (
	"context"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/memory"
	"taskseek/internal/prompt"
	"taskseek/internal/tools"
)

const fileFallbackPrompt = `You are a file operations assistant working inside the user's workspace.
To locate files, emit a line of the form:

find: <name substring>

To run a shell command for reading or organizing files, emit a bash fenced
block. Report what you found in plain language.`

// File handles filesystem queries: locating, reading, and organizing files
// under the configured working directory.
type File struct {
	Base
	registry *tools.Registry
}

// NewFile builds the filesystem agent under the "files" routing role.
func NewFile(provider llm.Provider, prompts *prompt.Store, registry *tools.Registry) *File {
	a := &File{
		Base:     NewBase("File Agent", "files", "file_agent", fileFallbackPrompt, provider, prompts),
		registry: registry,
	}
	logging.Agents("Created %s (role=%s)", a.Name(), a.Role())
	return a
}

// Process answers one filesystem query. "find:" directives run through the
// file_finder tool and bash blocks through the shell tool; their outputs are
// fed back for a final summary round.
func (a *File) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query)

	answer, reasoning, err := a.think(ctx)
	if err != nil {
		return Result{}, err
	}

	outputs := a.runDirectives(ctx, answer)
	if outputs == "" {
		return Result{Answer: answer, Reasoning: reasoning, Success: true}, nil
	}

	a.mem.Push(memory.RoleUser, "Tool output:\n"+outputs+"\nSummarize the findings for the user.")
	answer, reasoning, err = a.think(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Answer: answer, Reasoning: reasoning, Success: true}, nil
}

// runDirectives executes find: lines and bash blocks from the answer and
// returns the combined tool output.
func (a *File) runDirectives(ctx context.Context, answer string) string {
	var sb strings.Builder

	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "find:") {
			continue
		}
		pattern := strings.TrimSpace(strings.TrimPrefix(line, "find:"))
		if pattern == "" {
			continue
		}

		finder := a.registry.Get("file_finder")
		if finder == nil {
			logging.ToolsDebug("file_finder tool unavailable")
			continue
		}
		out, err := finder.Execute(ctx, map[string]any{"pattern": pattern})
		if err != nil {
			out = err.Error()
		}
		sb.WriteString("[find " + pattern + "]\n" + out + "\n")
	}

	for _, block := range extractCodeBlocks(answer) {
		tool := a.registry.ForLanguage(block.Language)
		if tool == nil {
			continue
		}
		out, err := tool.Execute(ctx, map[string]any{"code": block.Code})
		if err != nil {
			out = err.Error()
		}
		sb.WriteString("[" + block.Language + "]\n" + out + "\n")
	}

	return strings.TrimSpace(sb.String())
}
