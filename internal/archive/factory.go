package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"lector/internal/config"
	"lector/internal/lector"
)

// NewArchiveFromConfig creates an Archive implementation based on the store
// config type. The "memory" type backs tests and dry runs with an in-memory
// SQLite database.
func NewArchiveFromConfig(cfg config.StoreConfig, clock lector.Clock, idgen lector.IDGenerator) (lector.Archive, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		return NewSQLiteArchive(filepath.Join(cfg.DataDir, "library.db"), clock, idgen)
	case "memory":
		return NewSQLiteArchive(":memory:", clock, idgen)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
