package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drflex/app"
	"github.com/kilianp07/drflex/infra/logger"
	"github.com/kilianp07/drflex/pkg/export"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Search the equilibrium compensation for the configured event window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service, f export.Format, w io.Writer) error {
			sol, err := svc.Solve(ctx)
			if err != nil {
				return err
			}
			logger.New("solve").Infof("status %s after %d iterations: %.2f %%", sol.Status, sol.Iterations, sol.CompensationPct)
			return export.WriteSolution(w, f, sol)
		})
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
}
