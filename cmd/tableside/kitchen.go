package main

import (
	"github.com/spf13/cobra"

	"tableside/internal/common/logger"
	"tableside/internal/config"
	"tableside/internal/microservices/kitchen"
)

func NewKitchenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := kitchen.Options{}

	cmd := &cobra.Command{
		Use:   "kitchen",
		Short: "Follow order events and keep the kitchen board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateRabbitMQ(); err != nil {
				return err
			}
			lg := logger.New("kitchen")
			defer lg.Sync()
			return kitchen.Run(cmd.Context(), cfg.RabbitMQ, opts, lg)
		},
	}
	cmd.Flags().StringVar(&opts.WorkerName, "worker-name", "kitchen-1", "consumer tag of this display")
	cmd.Flags().IntVar(&opts.Prefetch, "prefetch", 10, "RabbitMQ prefetch")
	cmd.Flags().IntVar(&opts.Port, "port", 3001, "board HTTP port, 0 to disable")
	return cmd
}
