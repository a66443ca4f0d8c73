package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"taskseek/internal/config"
	"taskseek/internal/logging"
)

// InterpreterTool runs a snippet of code through the given binary, passed via
// stdin. The binary must appear in the execution allow-list.
func InterpreterTool(name, description, binary string, languages []string, cfg config.ExecutionConfig) *Tool {
	return &Tool{
		Name:        name,
		Description: description,
		Languages:   languages,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			code, _ := args["code"].(string)
			if code == "" {
				return "", fmt.Errorf("code is required")
			}
			return runBinary(ctx, cfg, binary, nil, code)
		},
	}
}

// ShellTool executes a single command line through bash.
func ShellTool(cfg config.ExecutionConfig) *Tool {
	return &Tool{
		Name:        "shell",
		Description: "Execute a shell command and return its combined output",
		Languages:   []string{"bash", "sh", "shell"},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			command, _ := args["command"].(string)
			if command == "" {
				command, _ = args["code"].(string)
			}
			if command == "" {
				return "", fmt.Errorf("command is required")
			}
			return runBinary(ctx, cfg, "bash", []string{"-c", command}, "")
		},
	}
}

// FileFinderTool searches the working directory tree for file names matching
// a substring pattern.
func FileFinderTool(cfg config.ExecutionConfig) *Tool {
	return &Tool{
		Name:        "file_finder",
		Description: "Find files under the working directory by name substring",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			pattern, _ := args["pattern"].(string)
			if pattern == "" {
				return "", fmt.Errorf("pattern is required")
			}

			root := cfg.WorkingDirectory
			if root == "" {
				root = "."
			}

			var hits []string
			err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return nil // Skip unreadable entries
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				if !d.IsDir() && strings.Contains(d.Name(), pattern) {
					hits = append(hits, path)
				}
				return nil
			})
			if err != nil {
				return "", err
			}

			if len(hits) == 0 {
				return "No files found matching " + pattern, nil
			}
			return strings.Join(hits, "\n"), nil
		},
	}
}

// runBinary executes an allow-listed binary with bounded time and captured
// combined output. Non-zero exits are reported in the output, not as errors,
// so the agent can read the failure and correct itself.
func runBinary(ctx context.Context, cfg config.ExecutionConfig, binary string, args []string, stdin string) (string, error) {
	if !binaryAllowed(cfg, binary) {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotAllowed, binary)
	}

	timer := logging.StartTimer(logging.CategoryTools, "runBinary:"+binary)
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	if cfg.WorkingDirectory != "" {
		cmd.Dir = cfg.WorkingDirectory
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())

	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("%s timed out after %v", binary, cfg.Timeout())
	}
	if err != nil {
		logging.ToolsDebug("%s exited with error: %v", binary, err)
		return fmt.Sprintf("%s\n[exit error: %v]", output, err), nil
	}
	return output, nil
}

func binaryAllowed(cfg config.ExecutionConfig, binary string) bool {
	for _, allowed := range cfg.AllowedBinaries {
		if allowed == binary {
			return true
		}
	}
	return false
}

// DefaultRegistry builds the standard tool set for the coder and file agents.
func DefaultRegistry(cfg config.ExecutionConfig) *Registry {
	r := NewRegistry()
	r.MustRegister(ShellTool(cfg))
	r.MustRegister(InterpreterTool("python", "Run a Python snippet and return its output", "python3", []string{"python", "python3", "py"}, cfg))
	r.MustRegister(FileFinderTool(cfg))
	logging.Tools("Default tool registry ready: %v", r.Names())
	return r
}
