// Package memory holds the ordered conversation state owned by one agent.
// A Memory is append-only except for an explicit Reset; entries are never
// reordered or deleted individually. It is not designed for concurrent
// writers - each agent owns its memory exclusively.
package memory

import "sync"

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single immutable conversation turn.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Memory is the ordered conversation history of one agent.
// The first entry, if present, always carries the system prompt.
type Memory struct {
	mu           sync.RWMutex
	systemPrompt string
	entries      []Entry
}

// New creates a memory seeded with a system prompt. An empty prompt yields an
// empty memory.
func New(systemPrompt string) *Memory {
	m := &Memory{systemPrompt: systemPrompt}
	if systemPrompt != "" {
		m.entries = append(m.entries, Entry{Role: RoleSystem, Content: systemPrompt})
	}
	return m
}

// Push appends a conversation entry.
func (m *Memory) Push(role Role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Role: role, Content: content})
}

// Reset clears the history back to the system prompt alone.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = m.entries[:0]
	if m.systemPrompt != "" {
		m.entries = append(m.entries, Entry{Role: RoleSystem, Content: m.systemPrompt})
	}
}

// Entries returns a copy of the history in append order.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Last returns the most recent entry and true, or a zero entry and false when
// the memory is empty.
func (m *Memory) Last() (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}
