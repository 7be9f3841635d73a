package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GormazAR/overlay/internal/api"
	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/handlers"
	"github.com/GormazAR/overlay/internal/logging"
	intOtel "github.com/GormazAR/overlay/internal/otel"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.jsonl>",
	Short: "Replay a host command script",
	Long: `Replay reads one JSON object per line:

  {"command": ":TRACKING:CHANGED:", "args": [{"added": [...]}]}
  {"camera": {"position": [0, 1.5, 0], "rotation": [0, 0, 0, 1], "fov": 60}}

and prints each bridge reply followed by the final scene.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		steps, err := readScript(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return replay(cmd.Context(), steps)
	},
}

func replay(ctx context.Context, steps []step) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	if err := config.Load(configDir); err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			return err
		}
		printWarning("no config file found, using defaults")
	}
	level := config.GetString("logLevel")

	// log destination
	var logFile io.Writer
	logOut := io.Writer(os.Stdout)
	if logToFile {
		file, path, err := logging.OpenLogFile(config.GetString("logsDir"), "overlaysim", start)
		if err != nil {
			return err
		}
		defer file.Close()
		logFile, logOut = file, file
		printLabelValue("Log file", path)
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    logOut,
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

	var sim *simulator
	logOpts := logging.Options{
		File:        logFile,
		Level:       level,
		Provider:    provider.LoggerProvider(),
		ServiceName: otelCfg.ServiceName,
		Context: func() []slog.Attr {
			if sim == nil {
				return nil
			}
			return sim.logAttrs()
		},
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, "overlaysim")
		if err != nil {
			printWarning(fmt.Sprintf("graylog disabled: %v", err))
		} else {
			logOpts.Graylog = w
		}
	}
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logOpts)
	logger := slogManager.Logger()

	ocfg, err := config.GetOverlayConfig()
	if err != nil {
		return err
	}

	userID := config.DeviceID()
	var stats handlers.StatsClient
	if !offline {
		apiCfg := config.GetAPIConfig()
		client := api.New(apiCfg.ServerURL, apiCfg.Timeout)
		hcCtx, cancel := context.WithTimeout(ctx, apiCfg.Timeout)
		if err := client.Healthcheck(hcCtx); err != nil {
			printWarning(fmt.Sprintf("stats backend unreachable: %v", err))
		}
		cancel()
		stats = client
	}

	sim, err = newSimulator(simOptions{
		Overlay:  ocfg,
		UserID:   userID,
		Stats:    stats,
		Logger:   logger,
		LogOut:   logOut,
		LogLevel: level,
		Camera:   defaultCamera,
	})
	if err != nil {
		return err
	}
	_ = sim.service.RegisterUser(ctx)

	printSection(fmt.Sprintf("Replaying %d steps as %s", len(steps), userID))
	if err := sim.run(steps, func(st step, reply string) {
		if !quietReply {
			printReply(st.Line, st.Command, reply)
		}
	}); err != nil {
		return err
	}
	reported := sim.service.Status().Reported
	if reply := sim.finish(); reply != "" && !quietReply {
		printReply(0, "(session end)", reply)
	}

	printScene(sim, reported)

	if err := sim.shutdown(); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return slogManager.Flush(flushCtx)
}

func printScene(sim *simulator, reported []string) {
	printSection("Scene")
	printLabelValue("Pin", sim.manager.PinState().String())
	printLabelValue("Pin available", fmt.Sprintf("%t", sim.manager.PinAvailable()))
	if p, ok := sim.manager.Pinned(); ok {
		printLabelValue("Pinned pool", string(p.Pool))
	}
	printLabelValue("Scanned this session", fmt.Sprintf("%v", reported))

	objs := sim.scene.Objects()
	if len(objs) == 0 {
		fmt.Println()
		_, _ = dimColor.Println("  (no overlays)")
		return
	}
	fmt.Println()
	rows := make([][]string, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", o.Handle),
			o.Prototype,
			formatVec(o.Transform.Position),
			formatVec(o.Transform.Scale),
		})
	}
	printTable([]string{"Handle", "Prototype", "Position", "Scale"}, rows)
}
