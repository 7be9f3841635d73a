package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/influx"
	"github.com/GormazAR/overlay/internal/logging"
	intOtel "github.com/GormazAR/overlay/internal/otel"
	"github.com/GormazAR/overlay/internal/server"
	"github.com/GormazAR/overlay/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stats API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

// loadConfig reads the config file, tolerating a missing one.
func loadConfig(log zerolog.Logger) error {
	if err := config.Load(configDir); err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			return err
		}
		log.Warn().Str("dir", configDir).Msg("no config file found, using defaults")
	}
	return nil
}

func serve(ctx context.Context) error {
	zlog := logging.NewZerolog(os.Stdout, "info")
	if err := loadConfig(zlog); err != nil {
		return err
	}
	level := config.GetString("logLevel")
	zlog = logging.NewZerolog(os.Stdout, level)

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    os.Stdout,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	logOpts := logging.Options{
		File:        io.Writer(os.Stdout),
		Level:       level,
		Provider:    provider.LoggerProvider(),
		ServiceName: otelCfg.ServiceName,
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, "statsserver")
		if err != nil {
			zlog.Warn().Err(err).Msg("graylog disabled")
		} else {
			logOpts.Graylog = w
		}
	}
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logOpts)
	logger := slogManager.Logger()

	backend, err := storage.NewBackend(config.GetStorageConfig(), zlog)
	if err != nil {
		return err
	}
	defer backend.Close()
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	opts := []server.Option{server.WithLogger(logger)}
	im := influx.NewManager(config.GetInfluxConfig(), zlog)
	switch err := im.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Warn("influx unavailable, usage points not recorded", "error", err)
	default:
		defer im.Close()
		opts = append(opts, server.WithRecorder(im))
	}

	srvCfg := config.GetServerConfig()
	logger.Info("stats server starting", "address", srvCfg.Address, "version", version)
	err = server.New(backend, opts...).ListenAndServe(ctx, srvCfg.Address, srvCfg.ShutdownTimeout)
	logger.Info("stats server stopped", slog.Any("error", err))

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(err, slogManager.Flush(flushCtx))
}
