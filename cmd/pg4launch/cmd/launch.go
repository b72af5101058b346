package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pg4sim/pg4launch/internal/backend"
	"github.com/pg4sim/pg4launch/internal/common/app"
	"github.com/pg4sim/pg4launch/internal/launcher"
)

// Render the macros of one or more batches and submit their runs.
func launchCmd(a *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <batch> [<batch>...]",
		Short: "Render macros for the given batches and submit their runs.",
		Long: `Render macros for the given batches and submit their runs.

Batches are launched in the order given. Every batch is checked before the first one
is launched. Use "pg4launch list" to see the known batches.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := cmd.Flags().GetInt("runs")
			if err != nil {
				return err
			}
			skip, err := cmd.Flags().GetInt("skip")
			if err != nil {
				return err
			}
			backendFlag, err := cmd.Flags().GetString("backend")
			if err != nil {
				return err
			}
			var kind backend.Kind
			if backendFlag != "" {
				if kind, err = backend.ParseKind(backendFlag); err != nil {
					return err
				}
			}

			// Cancelled on SIGINT/SIGTERM, which stops local backends between jobs.
			ctx := app.CreateContextWithShutdown()
			return a.Launch(ctx, args, launcher.LaunchOptions{
				Runs:    runs,
				Skip:    skip,
				Backend: kind,
			})
		},
	}

	cmd.Flags().Int("runs", -1, "Number of runs per batch (default: the batch's own run count).")
	cmd.Flags().Int("skip", 0, "Skip runs before this position, e.g., to resume an interrupted batch.")
	cmd.Flags().String("backend", "", "Backend to use: auto, cluster, parallel, pool or sequential.")

	return cmd
}

// Launch the detector response calculation over the outputs of a finished simulation.
func responseCmd(a *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "response <simulation>",
		Short: "Calculate the detector response for the HDF5 outputs of a simulation.",
		Long: `Calculate the detector response for the HDF5 outputs of a simulation.

Runs $MPM_P2X_ANALYSIS/Examples/CalcDetectorResponse on every Run_<n>.h5 in
$PG4_OUTDIR/<simulation> that has an accompanying .h5.xml file.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			forceParallel, err := cmd.Flags().GetBool("force-parallel")
			if err != nil {
				return err
			}
			xargs, err := cmd.Flags().GetString("xargs")
			if err != nil {
				return err
			}
			ctx := app.CreateContextWithShutdown()
			return a.Response(ctx, args[0], launcher.ResponseOptions{
				ForceParallel: forceParallel,
				XArgs:         xargs,
			})
		},
	}

	cmd.Flags().Bool("force-parallel", false, "Run on this host even if a cluster is available.")
	cmd.Flags().String("xargs", "", "Extra arguments for the response calculator.")

	return cmd
}
