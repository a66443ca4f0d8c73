package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"taskseek/internal/llm"
	"taskseek/internal/logging"
	"taskseek/internal/mcp"
	"taskseek/internal/memory"
	"taskseek/internal/prompt"
)

const mcpFallbackPrompt = `You are an assistant with access to external tools exposed over the Model
Context Protocol. The available tools are listed below. To invoke one, emit
a json fenced block:

` + "```json" + `
{"tool": "<name>", "arguments": {...}}
` + "```" + `

The tool result will be returned to you. When no further calls are needed,
answer the user directly.`

// MCP bridges queries to tools served by an external MCP server.
type MCP struct {
	Base
	client *mcp.Client
}

// NewMCP builds the protocol-tool agent under the "mcp" routing role. The
// client must already be connected.
func NewMCP(provider llm.Provider, prompts *prompt.Store, client *mcp.Client) *MCP {
	a := &MCP{
		Base:   NewBase("MCP Agent", "mcp", "mcp_agent", mcpFallbackPrompt, provider, prompts),
		client: client,
	}
	logging.Agents("Created %s (role=%s, tools=%d)", a.Name(), a.Role(), len(client.Tools()))
	return a
}

// Process runs a bounded call loop: each round the answer may carry one json
// tool invocation; its result feeds the next round. Without an invocation
// the answer is final.
func (a *MCP) Process(ctx context.Context, query string) (Result, error) {
	a.mem.Push(memory.RoleUser, query+"\n\nAvailable tools:\n"+a.describeTools())

	const maxCalls = 5
	var answer, reasoning string
	var err error

	for call := 0; call <= maxCalls; call++ {
		answer, reasoning, err = a.think(ctx)
		if err != nil {
			return Result{}, err
		}

		name, args, ok := extractToolCall(answer)
		if !ok {
			return Result{Answer: answer, Reasoning: reasoning, Success: true}, nil
		}
		if call == maxCalls {
			break
		}

		logging.Tools("%s calling tool %s", a.Name(), name)
		out, callErr := a.client.CallTool(ctx, name, args)
		if callErr != nil {
			out = "Tool call failed: " + callErr.Error()
		}
		a.mem.Push(memory.RoleUser, fmt.Sprintf("Result of %s:\n%s", name, out))
	}

	return Result{Answer: answer, Reasoning: reasoning, Success: false}, nil
}

func (a *MCP) describeTools() string {
	var sb strings.Builder
	for _, tool := range a.client.Tools() {
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}
	if sb.Len() == 0 {
		return "(none)"
	}
	return sb.String()
}

// extractToolCall finds the first json fenced block carrying a tool
// invocation.
func extractToolCall(answer string) (name string, args map[string]any, ok bool) {
	for _, block := range extractCodeBlocks(answer) {
		if block.Language != "json" {
			continue
		}
		var call struct {
			Tool      string         `json:"tool"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(block.Code), &call); err != nil || call.Tool == "" {
			continue
		}
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
		return call.Tool, call.Arguments, true
	}
	return "", nil, false
}
