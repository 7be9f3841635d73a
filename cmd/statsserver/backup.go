package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/logging"
	"github.com/GormazAR/overlay/internal/storage"
)

var backupCmd = &cobra.Command{
	Use:   "backup <path>",
	Short: "Write a snapshot of the SQLite stats database",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		zlog := logging.NewZerolog(os.Stderr, "info")
		if err := loadConfig(zlog); err != nil {
			return err
		}
		return backup(config.GetStorageConfig(), args[0])
	},
}

func backup(cfg config.StorageConfig, path string) error {
	zlog := logging.NewZerolog(os.Stderr, config.GetString("logLevel"))
	backend, err := storage.NewBackend(cfg, zlog)
	if err != nil {
		return err
	}
	defer backend.Close()

	snap, ok := backend.(storage.Snapshotter)
	if !ok {
		return fmt.Errorf("storage type %q does not support snapshots", cfg.Type)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := snap.Snapshot(path); err != nil {
		return errors.Join(fmt.Errorf("snapshot to %s", path), err)
	}
	zlog.Info().Str("path", path).Msg("stats database snapshot written")
	return nil
}
