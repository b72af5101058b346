package common

import (
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	commonconfig "github.com/pg4sim/pg4launch/internal/common/config"
	"github.com/pg4sim/pg4launch/internal/common/logging"
)

// DefaultConfigName is the name of the per-user config file looked up in $HOME when --config isn't given.
const DefaultConfigName = ".pg4launch"

// LoadConfig reads the config file at path (or $HOME/.pg4launch.yaml when path is empty) into v and
// unmarshals the merged result into config. A missing default config file is not an error.
func LoadConfig(v *viper.Viper, config interface{}, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return errors.Wrap(err, "error getting user home directory")
		}
		v.AddConfigPath(home)
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// This only occurs when looking for the default file and it is not present.
			// Users don't have to provide one, so do nothing.
		default:
			return errors.Wrapf(err, "error reading config file %s", v.ConfigFileUsed())
		}
	} else {
		log.Debugf("Loaded config from %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return errors.Wrap(err, "error decoding configuration")
	}
	return nil
}

// ConfigureCommandLineLogging sets up logrus for interactive use: bare messages on stdout.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&logging.CommandLineFormatter{ShowLevel: true})
	log.SetOutput(os.Stdout)
}
