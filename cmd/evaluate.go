package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drflex/app"
	"github.com/kilianp07/drflex/pkg/export"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the configured demand-response event",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service, f export.Format, w io.Writer) error {
			id, res, err := svc.Evaluate(ctx)
			if err != nil {
				return err
			}
			return export.WriteResult(w, f, id, res)
		})
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
