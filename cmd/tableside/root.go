package main

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "tableside",
		Short:         "Table-side ordering for restaurants",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (optional, TABLESIDE_* env vars override it)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewKitchenCommand(opts))
	cmd.AddCommand(NewDBCommand(opts))
	return cmd
}
