// Package mcp implements a minimal client for Model Context Protocol servers
// over stdio JSON-RPC. The mcp agent issues requests one at a time, so the
// transport is synchronous: a mutex serializes call/response pairs.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"taskseek/internal/logging"
)

// ToolInfo describes a tool advertised by the server.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Client talks to one MCP server subprocess.
type Client struct {
	mu      sync.Mutex
	command string
	args    []string
	timeout time.Duration

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	connected bool
	nextID    int
	tools     []ToolInfo
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a client for the given server command.
func NewClient(command string, args []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		command: command,
		args:    args,
		timeout: timeout,
		nextID:  1,
	}
}

// Connect starts the server subprocess, performs the initialize handshake,
// and fetches the advertised tool list.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}
	if c.command == "" {
		return fmt.Errorf("empty command for mcp server")
	}

	c.cmd = exec.Command(c.command, c.args...)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mcp server %s: %w", c.command, err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.connected = true

	logging.Tools("MCP server started: %s", c.command)

	if _, err := c.callLocked(ctx, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]string{"name": "taskseek", "version": "0.3.0"},
		"capabilities":    map[string]any{},
	}); err != nil {
		c.disconnectLocked()
		return fmt.Errorf("mcp initialize failed: %w", err)
	}

	result, err := c.callLocked(ctx, "tools/list", nil)
	if err != nil {
		c.disconnectLocked()
		return fmt.Errorf("mcp tools/list failed: %w", err)
	}

	var listed struct {
		Tools []ToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(result, &listed); err != nil {
		c.disconnectLocked()
		return fmt.Errorf("failed to parse tool list: %w", err)
	}
	c.tools = listed.Tools

	logging.Tools("MCP server advertised %d tools", len(c.tools))
	return nil
}

// Tools returns the advertised tool list.
func (c *Client) Tools() []ToolInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ToolInfo, len(c.tools))
	copy(out, c.tools)
	return out
}

// CallTool invokes a named tool and returns the textual result content.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return "", fmt.Errorf("mcp client not connected")
	}

	result, err := c.callLocked(ctx, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse tool result: %w", err)
	}

	text := ""
	for _, part := range parsed.Content {
		if part.Type == "text" {
			text += part.Text
		}
	}
	if parsed.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}
	return text, nil
}

// callLocked sends one request and reads the matching response line.
// Caller holds c.mu.
func (c *Client) callLocked(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := c.nextID
	c.nextID++

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	logging.ToolsDebug("MCP -> %s (id=%d)", method, id)

	if _, err := c.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("mcp call %s timed out after %v", method, c.timeout)
		}

		line, err := c.stdout.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			// Server notifications and log lines are skipped.
			continue
		}
		if resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
}

func (c *Client) disconnectLocked() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	c.connected = false
}

// Close shuts down the server subprocess.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	logging.Tools("Stopping MCP server %s", c.command)
	c.disconnectLocked()
	if c.cmd != nil {
		_ = c.cmd.Wait()
	}
	return nil
}
