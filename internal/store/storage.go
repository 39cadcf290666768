// Package store provides synchronous key/value slots that hold text blobs.
package store

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned when the backing medium cannot be reached.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a get/set-by-key text blob store.
// GetItem reports ok=false when the key has never been written.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// Memory keeps slots in a map. Nothing survives the process.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: map[string]string{}}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}
