package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/kilianp07/drflex/app"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/internal/eventbus"
	"github.com/kilianp07/drflex/pkg/export"
)

var noProgress bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate every configured duration and incentive combination",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service, f export.Format, w io.Writer) error {
			sc := svc.Config().Scenario.Sweep
			bus := eventbus.NewTyped[scenario.SweepEvent]()
			defer bus.Close()

			var barDone chan struct{}
			if !noProgress {
				total := len(sc.DurationsH) * len(sc.IncentivesPct)
				barDone = progressBar(bus, total)
			}
			res, err := svc.Sweep(ctx, bus)
			bus.Close()
			if barDone != nil {
				<-barDone
			}
			if err != nil {
				return err
			}
			return export.WriteSweep(w, f, res)
		})
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(sweepCmd)
}

// progressBar draws sweep progress on stderr until the bus is closed.
func progressBar(bus *eventbus.TypedBus[scenario.SweepEvent], total int) chan struct{} {
	sub := bus.SubscribeN(total)
	bar := pb.New(total)
	bar.Output = os.Stderr
	bar.ShowTimeLeft = true
	bar.Start()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer bar.Finish()
		for ev := range sub {
			bar.Set(ev.Done)
		}
	}()
	return done
}
