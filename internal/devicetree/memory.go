package devicetree

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"
)

// Memory is an in-process Tree. The zero value is not usable; call NewMemory.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]int
	rootErr   error
	entryErrs map[string]error
	deleteErr map[string]error
	deleted   []string
	onDelete  func(m *Memory, name string)
}

// NewMemory builds a tree from raw key name -> instance count.
func NewMemory(entries map[string]int) *Memory {
	m := &Memory{
		entries:   make(map[string]int, len(entries)),
		entryErrs: make(map[string]error),
		deleteErr: make(map[string]error),
	}
	for name, count := range entries {
		m.entries[name] = count
	}
	return m
}

// Set adds or replaces one entry.
func (m *Memory) Set(name string, instances int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = instances
}

// FailRoot makes Entries fail with err wrapped in ErrRootUnavailable.
func (m *Memory) FailRoot(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootErr = err
}

// FailEntry makes the named entry unreadable.
func (m *Memory) FailEntry(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entryErrs[name] = err
}

// FailDelete makes DeleteEntry fail for the named entry.
func (m *Memory) FailDelete(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr[name] = err
}

// DenyDelete makes DeleteEntry fail with a permission error for name.
func (m *Memory) DenyDelete(name string) {
	m.FailDelete(name, fs.ErrPermission)
}

// OnDelete registers a hook invoked after every successful deletion, with the
// tree lock released. Tests use it to simulate the OS re-populating entries.
func (m *Memory) OnDelete(fn func(m *Memory, name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDelete = fn
}

// Deleted returns the deleted key names in deletion order.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Entries implements Tree. Entries are returned sorted by name.
func (m *Memory) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rootErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnavailable, m.rootErr)
	}
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		entry := Entry{Name: name, Instances: m.entries[name]}
		if err := m.entryErrs[name]; err != nil {
			entry = Entry{Name: name, Err: err}
		}
		out = append(out, entry)
	}
	return out, nil
}

// DeleteEntry implements Tree.
func (m *Memory) DeleteEntry(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.deleteErr[name]; err != nil {
		m.mu.Unlock()
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if _, ok := m.entries[name]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("delete %s: %w", name, fs.ErrNotExist)
	}
	delete(m.entries, name)
	m.deleted = append(m.deleted, name)
	hook := m.onDelete
	m.mu.Unlock()

	if hook != nil {
		hook(m, name)
	}
	return nil
}
