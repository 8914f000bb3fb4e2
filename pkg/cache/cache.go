// Package cache provides the durable key-value store the dashboard falls back
// to when the backend is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Keys of the durable cache.
const (
	KeyCurrentUser   = "currentUser"
	KeyUsers         = "users"
	KeyAuthToken     = "authToken"
	KeyAlertSettings = "alertSettings"
	KeyTheme         = "app-theme"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// Cache is a JSON-valued key-value store. Get reports false with a nil error
// when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Memory is an in-process Cache. It does not survive restarts and is meant
// for tests and one-shot commands.
type Memory struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]json.RawMessage)}
}

// Get decodes the value stored under key into dest.
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
	}
	m.mu.Unlock()
	return nil
}

// Has reports whether key is present.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}

// Raw returns the stored JSON for key.
func (m *Memory) Raw(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return string(m.values[key])
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
