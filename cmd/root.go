package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drflex/app"
	"github.com/kilianp07/drflex/config"
	"github.com/kilianp07/drflex/infra/logger"
	"github.com/kilianp07/drflex/pkg/export"
)

var (
	cfgPath   string
	outFormat string
	outPath   string
)

var rootCmd = &cobra.Command{
	Use:           "drflex",
	Short:         "Household demand-response flexibility engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService is swapped in tests.
var newService = func(cfg *config.Config) (*app.Service, error) { return app.New(cfg) }

// withService loads the configuration, builds the service and runs fn with a
// context canceled on SIGINT or SIGTERM.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service, f export.Format, w io.Writer) error) error {
	f, err := export.ParseFormat(outFormat)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	svc.ServeMetrics(ctx)

	w := cmd.OutOrStdout()
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		w = file
	}
	return fn(ctx, svc, f, w)
}
