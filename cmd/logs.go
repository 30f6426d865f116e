package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drflex/config"
	"github.com/kilianp07/drflex/core/scenario/logging"
)

var (
	logsSince     time.Duration
	logsAppliance string
	logsSweep     string
	logsKind      string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query the evaluation log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		store, err := logging.NewStore(cfg.Logging.EvalLog)
		if err != nil {
			return err
		}
		defer store.Close()

		q := logging.LogQuery{Appliance: logsAppliance, SweepID: logsSweep, Kind: logsKind}
		if logsSince > 0 {
			q.Start = time.Now().Add(-logsSince)
		}
		records, err := store.Query(cmd.Context(), q)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "only records newer than this duration")
	logsCmd.Flags().StringVar(&logsAppliance, "appliance", "", "only records involving this appliance")
	logsCmd.Flags().StringVar(&logsSweep, "sweep", "", "only records of this sweep")
	logsCmd.Flags().StringVar(&logsKind, "kind", "", "evaluation or solve")
	rootCmd.AddCommand(logsCmd)
}
