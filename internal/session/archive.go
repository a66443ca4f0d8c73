package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"taskseek/internal/logging"
)

// Conversation is the JSON export shape for one agent's history.
type Conversation struct {
	AgentName  string   `json:"agent_name"`
	AgentRole  string   `json:"agent_role"`
	ExportedAt string   `json:"exported_at"`
	Records    []Record `json:"records"`
}

// ExportConversations writes one JSON file per agent under dir, named after
// the agent. Agents with no recorded history are skipped. Returns the paths
// written.
func (s *Store) ExportConversations(ctx context.Context, dir string, agentNames []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	var written []string
	for _, name := range agentNames {
		records, err := s.ByAgent(ctx, name)
		if err != nil {
			return written, err
		}
		if len(records) == 0 {
			continue
		}

		conv := Conversation{
			AgentName:  name,
			AgentRole:  records[0].AgentRole,
			ExportedAt: time.Now().UTC().Format(time.RFC3339),
			Records:    records,
		}

		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return written, fmt.Errorf("failed to marshal conversation for %s: %w", name, err)
		}

		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}

		logging.Session("Exported %d records for %s to %s", len(records), name, path)
		written = append(written, path)
	}
	return written, nil
}

// CopyTrainingData copies every regular file from src into dst. Each file is
// copied through a temp file and renamed into place, so a partially written
// copy never lands under dst. Files that fail are logged and skipped; the
// copy continues with the rest.
func CopyTrainingData(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Session("No training data at %s, nothing to copy", src)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read training data directory: %w", err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination directory: %w", err)
	}

	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			logging.SessionWarn("Failed to copy %s: %v", entry.Name(), err)
			continue
		}
		logging.SessionDebug("Copied training file %s", entry.Name())
		copied++
	}

	logging.Session("Copied %d/%d training files from %s to %s", copied, len(entries), src, dst)
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
