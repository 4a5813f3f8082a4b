package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryConfigStore is an in-memory ConfigStore. Configs are deep-copied on
// the way in and out so callers cannot mutate stored state.
type MemoryConfigStore struct {
	mutex   sync.RWMutex
	configs map[string]*CheckpointConfig
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{configs: map[string]*CheckpointConfig{}}
}

func (s *MemoryConfigStore) Get(ctx context.Context, name string) (*CheckpointConfig, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	config, ok := s.configs[name]
	if !ok {
		return nil, fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
	}
	return config.Copy(), nil
}

func (s *MemoryConfigStore) Put(ctx context.Context, config *CheckpointConfig) error {
	if config == nil || config.Name == "" {
		return NewConfigError("cannot store a checkpoint without a name")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.configs[config.Name] = config.Copy()
	return nil
}

func (s *MemoryConfigStore) List(ctx context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryConfigStore) Delete(ctx context.Context, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.configs, name)
	return nil
}
