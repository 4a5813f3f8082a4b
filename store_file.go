package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileConfigStore persists each checkpoint config as a YAML file named
// <name>.yaml under a single directory.
type FileConfigStore struct {
	dataDir string
}

// NewFileConfigStore creates a file-based config store rooted at dataDir,
// creating the directory if needed. An empty dataDir defaults to
// ~/.deepnoodle/checkpoints.
func NewFileConfigStore(dataDir string) (*FileConfigStore, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".deepnoodle", "checkpoints")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config store directory %s: %w", dataDir, err)
	}
	return &FileConfigStore{dataDir: dataDir}, nil
}

func (s *FileConfigStore) configPath(name string) string {
	return filepath.Join(s.dataDir, name+".yaml")
}

func (s *FileConfigStore) Get(ctx context.Context, name string) (*CheckpointConfig, error) {
	data, err := os.ReadFile(s.configPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read checkpoint config: %w", err)
	}
	return LoadConfigString(string(data))
}

func (s *FileConfigStore) Put(ctx context.Context, config *CheckpointConfig) error {
	if config == nil || config.Name == "" {
		return NewConfigError("cannot store a checkpoint without a name")
	}
	if strings.ContainsAny(config.Name, `/\`) {
		return NewConfigError("checkpoint name %q must not contain path separators", config.Name)
	}
	data, err := config.ToYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.configPath(config.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint config file: %w", err)
	}
	return nil
}

func (s *FileConfigStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read config store directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileConfigStore) Delete(ctx context.Context, name string) error {
	if err := os.Remove(s.configPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint config file: %w", err)
	}
	return nil
}
