package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pg4sim/pg4launch/internal/launcher"
)

func listCmd(app *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the known batches.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.List()
		},
	}
	return cmd
}

func describeCmd(app *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <batch>",
		Short: "Print the resolved definition of a batch.",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Describe(args[0])
		},
	}
	return cmd
}
