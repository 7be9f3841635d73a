package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/database"
	"github.com/GormazAR/overlay/internal/model"
	gormstore "github.com/GormazAR/overlay/internal/storage/gorm"
	"github.com/GormazAR/overlay/internal/storage/memory"
)

// NewBackend creates a storage backend based on configuration. The returned
// backend still needs Init.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres", "sqlite":
		dbm := database.NewManager(cfg, log)
		if err := dbm.Connect(); err != nil {
			return nil, err
		}
		return gormstore.New(dbm, model.DefaultCatalog()), nil
	case "memory":
		return memory.New(model.DefaultCatalog()), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
