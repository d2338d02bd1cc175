package library

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	data     []byte
	modified time.Time
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry)}
}

func (m *Memory) Driver() Driver { return DriverMemory }
func (m *Memory) Close() error   { return nil }

func (m *Memory) Put(_ context.Context, name string, data []byte) (Entry, error) {
	name, err := CleanName(name)
	if err != nil {
		return Entry{}, err
	}
	e := memEntry{data: slices.Clone(data), modified: time.Now().UTC()}
	m.mu.Lock()
	m.entries[name] = e
	m.mu.Unlock()
	return Entry{Name: name, Size: int64(len(data)), Modified: e.modified}, nil
}

func (m *Memory) Get(_ context.Context, name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.data), nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for name, e := range m.entries {
		out = append(out, Entry{Name: name, Size: int64(len(e.data)), Modified: e.modified})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, name string) (bool, error) {
	name, err := CleanName(name)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return false, nil
	}
	delete(m.entries, name)
	return true, nil
}
