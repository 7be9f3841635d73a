package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GormazAR/overlay/internal/config"
	"github.com/GormazAR/overlay/internal/pool"
)

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "Print the configured pool table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configDir); err != nil {
			if !errors.Is(err, config.ErrNotFound) {
				return err
			}
			printWarning("no config file found, showing defaults")
		}

		ocfg, err := config.GetOverlayConfig()
		if err != nil {
			return err
		}
		registry, err := pool.New(ocfg.Pools)
		if err != nil {
			return err
		}

		printSection("Pools (pin priority order)")
		rows := make([][]string, 0, len(ocfg.Pools))
		for _, id := range registry.Pools() {
			def, err := registry.Lookup(id)
			if err != nil {
				return err
			}
			prototype := def.Prototype
			if prototype == "" {
				prototype = "-"
			}
			rows = append(rows, []string{string(def.ID), prototype, strings.Join(def.Markers, ", ")})
		}
		printTable([]string{"Pool", "Prototype", "Markers"}, rows)
		return nil
	},
}
