package main

import (
	"context"

	"github.com/spf13/cobra"

	"hiretop/matching-service/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema if it is missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rt, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := postgres.New(rt.pool).Migrate(ctx); err != nil {
			return err
		}
		rt.log.Info("schema up to date")
		return nil
	},
}
