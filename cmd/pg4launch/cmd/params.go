package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pg4sim/pg4launch/internal/backend"
	"github.com/pg4sim/pg4launch/internal/common"
	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/common/logging"
	"github.com/pg4sim/pg4launch/internal/launcher"
	"github.com/pg4sim/pg4launch/internal/launcher/configuration"
	"github.com/pg4sim/pg4launch/internal/workspace"
)

// setDefaults registers the defaults of every config key, so that they can be overridden
// individually by the config file and by environment variables.
func setDefaults(v *viper.Viper) {
	defaults := backend.DefaultConfig()
	v.SetDefault("backend.kind", string(defaults.Kind))
	v.SetDefault("backend.clusterClient", defaults.ClusterClient)
	v.SetDefault("backend.queue", defaults.Queue)
	v.SetDefault("backend.priority", defaults.Priority)
	v.SetDefault("backend.exports", defaults.Exports)
	v.SetDefault("backend.poolTool", defaults.PoolTool)
	v.SetDefault("backend.workers", defaults.Workers)
	v.SetDefault("backend.niceness", defaults.Niceness)
	v.SetDefault("backend.scratchDir", defaults.ScratchDir)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "command")
}

// initParams loads the config file and the environment into app.Params and configures logging.
func initParams(cmd *cobra.Command, app *launcher.App) error {
	v := viper.New()
	setDefaults(v)
	if err := v.BindPFlag("logLevel", cmd.Flags().Lookup("log-level")); err != nil {
		return errors.WithStack(err)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.WithStack(err)
	}
	var config configuration.LauncherConfiguration
	if err := common.LoadConfig(v, &config, configPath); err != nil {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "config",
			Value:   configPath,
			Message: err.Error(),
		})
	}
	if err := logging.Configure(logging.Config{Level: config.LogLevel, Format: config.LogFormat}); err != nil {
		return errors.WithStack(&launcherrors.ErrInvalidArgument{
			Name:    "logging",
			Value:   config.LogLevel,
			Message: err.Error(),
		})
	}

	app.Params.Config = config
	app.Params.Env = workspace.EnvironmentFromViper(v)
	return nil
}
