package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandevgo/clairebot/internal/service/scheduler"
	"github.com/sandevgo/clairebot/pkg/log"
	"github.com/sandevgo/clairebot/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduled message delivery workers",
	Long:  `Opens every profile and runs a polling worker per profile that delivers due scheduled messages into its chat history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting claire")

		services, err := newServices(ctx)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("claire has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func newServices(ctx context.Context) ([]srv.Service, error) {
	rt, err := newRuntime(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := rt.profiles.All(ctx)
	if err != nil {
		return nil, err
	}

	services := []srv.Service{
		srv.NewCleanup(rt.db.Close),
	}
	for _, p := range profiles {
		ps, err := rt.openProfile(ctx, p)
		if err != nil {
			return nil, err
		}
		delivery := scheduler.NewDelivery(ps.queue, ps.history)
		delivery.Interval = rt.schedCfg.PollInterval
		services = append(services, delivery)
	}
	return services, nil
}
