package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qlibin/event-attendees/config"
	"github.com/qlibin/event-attendees/schema"
)

func newBootstrapCommand(v *viper.Viper, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "create the event tables (recreate them with --clean) and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			s, err := loadStoreSettings(v)
			if err != nil {
				return err
			}

			logger := newLogger(stderr, s.LogLevel)

			conn, err := config.Open(cmd.Context(), s.Driver, s.DSN, config.DefaultPoolSettings(0))
			if err != nil {
				return err
			}

			defer func() {
				_ = conn.Close()
			}()

			return prepareSchema(cmd.Context(), conn, s.Clean, logger)
		},
	}
}

func prepareSchema(ctx context.Context, conn *config.Connection, clean bool, logger *slog.Logger) error {
	bootstrapper, err := schema.NewBootstrapper(conn.SQLDB(), conn.Driver().Dialect(), schema.WithLogger(logger))
	if err != nil {
		return err
	}

	if clean {
		return bootstrapper.Recreate(ctx)
	}

	return bootstrapper.CreateTables(ctx)
}
