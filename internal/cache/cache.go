// Package cache stores the advisory per-learner scene cursor.
package cache

import (
	"context"
	"sync"
)

// KeyPrefix namespaces cursor entries
const KeyPrefix = "ec_scene_n:"

// Key returns the cache key of a learner's cursor
func Key(userID string) string {
	return KeyPrefix + userID
}

// CursorCache is a narrow get/set store for the current scene number.
// Values are hints only; the submission store is authoritative.
type CursorCache interface {
	// GetScene reports the cached scene and whether one was present
	GetScene(ctx context.Context, userID string) (int, bool, error)
	SetScene(ctx context.Context, userID string, sceneN int) error
	Close() error
}

// Memory is an in-process CursorCache
type Memory struct {
	mu      sync.RWMutex
	entries map[string]int
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]int)}
}

func (m *Memory) GetScene(_ context.Context, userID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.entries[Key(userID)]
	return n, ok, nil
}

func (m *Memory) SetScene(_ context.Context, userID string, sceneN int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Key(userID)] = sceneN
	return nil
}

func (m *Memory) Close() error { return nil }
