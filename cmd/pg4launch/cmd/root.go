package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pg4sim/pg4launch/internal/launcher"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmd(launcher.NewApp())
}

func rootCmd(app *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pg4launch",
		Short: "pg4launch renders and launches batches of PROSPECT-G4 simulation runs.",
		Long: `pg4launch renders and launches batches of PROSPECT-G4 simulation runs.

Each run of a batch gets its own macro, rendered from the batch template, and the runs
are handed to the first available backend: a PBS cluster (qsub), a local GNU parallel
pool, or one after the other on this host.

Simulation launches need PG4_OUTDIR, PG4_AUXOUT and PG4_BIN to be set.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
backend:
  kind: auto
  workers: 8
  exports: [PG4_BIN, PG4_OUTDIR, PG4_AUXOUT, G4WORKDIR]
batches:
  - name: P2k_IBD
    runs: 120
  - name: Co60_scan
    events: 100000
    template: ~/Templates/DIMA_Co60.mac
    settings:
      gunParticle: gamma
    sweep:
      key: gun_energy
      logRange: {count: 20, from: 0.1, to: 10}

Keys under settings are read in lower case. Template placeholders match them regardless of
case, e.g. {{.gunParticle}} finds gunParticle, written as gunparticle by the config loader.

The location of this file can be passed in using the --config argument.
If not provided, $HOME/.pg4launch.yaml is used.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kill, err := cmd.Flags().GetBool("kill")
			if err != nil {
				return err
			}
			if kill {
				return app.Kill()
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.pg4launch.yaml).")
	cmd.PersistentFlags().String("log-level", "", "Log level: error, warning, info, debug or trace.")
	cmd.Flags().BoolP("kill", "k", false, "Kill running local pool jobs and exit.")

	cmd.AddCommand(
		launchCmd(app),
		responseCmd(app),
		listCmd(app),
		describeCmd(app),
		versionCmd(app),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *launcher.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}
