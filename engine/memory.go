package engine

import (
	"bytes"
	"context"
	"sync"
)

type memoryEntry struct {
	value []byte
	group string
}

// Memory is the reference in-process engine. A single instance may back
// every session in the process; all operations are guarded by one RWMutex,
// which makes PutIndexed/DeleteIndexed trivially atomic and gives
// CompareAndSwap real compare-and-swap semantics.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	groups  map[string]map[string]struct{}
	closed  bool
}

// NewMemory creates an empty in-process engine.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		groups:  make(map[string]map[string]struct{}),
	}
}

// Put stores a copy of value under key, preserving any existing group
// membership.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entries[key]
	entry.value = cloneBytes(value)
	m.entries[key] = entry
	return nil
}

// Get returns a copy of the stored value or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(entry.value), nil
}

// Delete removes the primary entry only. Idempotent.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// PutIndexed stores value under key and indexes key under group, migrating
// the index entry when the key moves between groups.
func (m *Memory) PutIndexed(_ context.Context, key string, value []byte, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.entries[key]; ok && prev.group != "" && prev.group != group {
		m.removeFromGroup(prev.group, key)
	}

	m.entries[key] = memoryEntry{value: cloneBytes(value), group: group}

	members, ok := m.groups[group]
	if !ok {
		members = make(map[string]struct{})
		m.groups[group] = members
	}
	members[key] = struct{}{}
	return nil
}

// GetGroup snapshots the current membership of group. Keys whose primary
// entry was removed by a plain Delete are healed out of the index here.
func (m *Memory) GetGroup(_ context.Context, group string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(m.groups[group]))
	for key := range m.groups[group] {
		entry, ok := m.entries[key]
		if !ok {
			m.removeFromGroup(group, key)
			continue
		}
		out[key] = cloneBytes(entry.value)
	}
	return out, nil
}

// DeleteIndexed removes both the primary entry and its index membership.
// Idempotent.
func (m *Memory) DeleteIndexed(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	if entry.group != "" {
		m.removeFromGroup(entry.group, key)
	}
	delete(m.entries, key)
	return nil
}

// CompareAndSwap replaces key's value when it still equals expected.
func (m *Memory) CompareAndSwap(_ context.Context, key string, expected, next []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !bytes.Equal(entry.value, expected) {
		return false, nil
	}
	entry.value = cloneBytes(next)
	m.entries[key] = entry
	return true, nil
}

// Close drops all state. Subsequent reads observe an empty engine.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	m.groups = make(map[string]map[string]struct{})
	m.closed = true
	return nil
}

func (m *Memory) removeFromGroup(group, key string) {
	members, ok := m.groups[group]
	if !ok {
		return
	}
	delete(members, key)
	if len(members) == 0 {
		delete(m.groups, group)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var (
	_ Engine  = (*Memory)(nil)
	_ Swapper = (*Memory)(nil)
)
