package checkpoint

import (
	"context"
)

// ConfigStore persists named checkpoint configurations. Implementations
// must be safe for concurrent use.
type ConfigStore interface {

	// Get returns the stored config with the given name, or ErrNotFound.
	Get(ctx context.Context, name string) (*CheckpointConfig, error)

	// Put stores the config under its name, replacing any previous version.
	Put(ctx context.Context, config *CheckpointConfig) error

	// List returns the stored checkpoint names in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the named config. Deleting an absent name is not an
	// error.
	Delete(ctx context.Context, name string) error
}
