package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"logodetect_backend/internal/app/di"
)

func newWeightsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "List discovered model weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, defaultWeight, err := di.NewCatalog(cfg)
			if err != nil {
				return err
			}

			list := catalog.List()
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No weights found in %s (%s)\n", cfg.WeightsDir, cfg.WeightsPattern)
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, w := range list {
				size := "-"
				if w.Size > 0 {
					size = humanize.IBytes(uint64(w.Size))
				}
				rows = append(rows, []string{w.Name, size, w.Path, yesNo(w.Name == defaultWeight)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Size", "Path", "Default"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
