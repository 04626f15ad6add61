package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/events"
	"hiretop/matching-service/internal/scheduler"
	"hiretop/matching-service/internal/store/postgres"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Publish reminders for upcoming interviews once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rt, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		store := postgres.New(rt.pool)
		publisher := events.NewPublisher(rt.rdb, rt.cfg.EventPrefix)
		sched := scheduler.New(store, publisher, rt.log.Named("scheduler"), rt.cfg.ReminderSchedule, rt.cfg.ReminderHorizon)

		sent, err := sched.Sweep(ctx)
		if err != nil {
			return err
		}
		rt.log.Info("reminders published", zap.Int("count", sent))
		return nil
	},
}
