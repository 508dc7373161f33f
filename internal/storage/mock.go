package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/dialogue-engine/pkg/profile"
)

// MockStorage is an in-memory implementation of Storage. It backs the
// console when no Redis is configured, and tests.
type MockStorage struct {
	mu        sync.RWMutex
	profiles  map[uuid.UUID][]byte
	files     map[string][]byte
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		profiles: make(map[uuid.UUID][]byte),
		files:    make(map[string][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// AddDialogueFile adds a document under name
func (m *MockStorage) AddDialogueFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveProfile stores a snapshot, so later changes to p are not seen until it is saved again
func (m *MockStorage) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = data
	return nil
}

func (m *MockStorage) LoadProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	m.mu.RLock()
	data, exists := m.profiles[id]
	m.mu.RUnlock()
	if !exists {
		return nil, nil // Return nil for not found
	}

	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

func (m *MockStorage) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

func (m *MockStorage) ListDialogueFiles(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockStorage) ReadDialogueFile(ctx context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.files[name]
	if !exists {
		return nil, fmt.Errorf("dialogue file not found: %s", name)
	}
	return data, nil
}
