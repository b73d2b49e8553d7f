package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/connections/database"
	"tableside/internal/connections/rabbitmq"
	"tableside/internal/microservices/ordering"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ordering HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTP.Port = port
			}

			lg := logger.New("ordering-service")
			defer lg.Sync()
			ctx := cmd.Context()

			db, err := database.ConnectDB(ctx, cfg.Database)
			if err != nil {
				lg.Error("db_connection_failed", err, nil)
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			lg.Info("db_connected", map[string]any{"driver": db.Driver})

			var rmq *rabbitmq.Client
			if cfg.RabbitMQ.Enabled {
				rmq, err = rabbitmq.Dial(cfg.RabbitMQ)
				if err != nil {
					lg.Error("rabbitmq_connection_failed", err, nil)
					return err
				}
				defer rmq.Close()
				lg.Info("rabbitmq_connected", map[string]any{"host": cfg.RabbitMQ.Host, "exchange": cfg.RabbitMQ.Exchange})
			}

			if err := ordering.Run(ctx, cfg, db, rmq, lg); err != nil {
				lg.Error("fatal", err, nil)
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides config)")
	return cmd
}
