// Package prompt loads agent system prompts from a directory of text files
// and optionally hot-reloads them when the files change on disk. Each agent
// asks the store for its prompt by file name at the start of a cycle, so an
// edit takes effect on the next query without a restart.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"taskseek/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Store caches prompt file contents keyed by base name (without extension).
type Store struct {
	mu      sync.RWMutex
	dir     string
	prompts map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads every .txt file under dir. A missing directory is not an
// error; agents fall back to their built-in prompts.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:     dir,
		prompts: make(map[string]string),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Prompt("Prompt directory %s not found, using built-in prompts", s.dir)
			return nil
		}
		return fmt.Errorf("failed to read prompt directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		if err := s.loadFileLocked(filepath.Join(s.dir, entry.Name())); err != nil {
			logging.PromptDebug("Skipping %s: %v", entry.Name(), err)
		}
	}

	logging.Prompt("Loaded %d prompts from %s", len(s.prompts), s.dir)
	return nil
}

// loadFileLocked reads one prompt file into the cache. Caller holds s.mu.
func (s *Store) loadFileLocked(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".txt")
	s.prompts[name] = strings.TrimSpace(string(data))
	return nil
}

// Get returns the prompt for the given name, or fallback when no file with
// that name was loaded.
func (s *Store) Get(name, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prompts[name]; ok && p != "" {
		return p
	}
	return fallback
}

// Names returns the loaded prompt names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.prompts))
	for name := range s.prompts {
		names = append(names, name)
	}
	return names
}

// Watch starts a filesystem watcher on the prompt directory and reloads
// individual files as they change. It is a no-op if the directory does not
// exist.
func (s *Store) Watch() error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go s.watchLoop()
	logging.Prompt("Watching %s for prompt changes", s.dir)
	return nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				s.mu.Lock()
				err := s.loadFileLocked(event.Name)
				s.mu.Unlock()
				if err != nil {
					logging.PromptDebug("Reload failed for %s: %v", event.Name, err)
				} else {
					logging.Prompt("Reloaded prompt %s", filepath.Base(event.Name))
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				name := strings.TrimSuffix(filepath.Base(event.Name), ".txt")
				s.mu.Lock()
				delete(s.prompts, name)
				s.mu.Unlock()
				logging.Prompt("Removed prompt %s", name)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.PromptDebug("Watcher error: %v", err)
		case <-s.done:
			return
		}
	}
}

// Close stops the watcher if one is running.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
