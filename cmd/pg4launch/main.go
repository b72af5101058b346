package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/pg4sim/pg4launch/cmd/pg4launch/cmd"
	"github.com/pg4sim/pg4launch/internal/common"
	"github.com/pg4sim/pg4launch/internal/common/launcherrors"
	"github.com/pg4sim/pg4launch/internal/common/logging"
)

// Config is handled by cmd/params.go
func main() {
	common.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		kind := launcherrors.KindFromError(err)
		logging.WithStacktrace(log.StandardLogger(), err).Errorf("pg4launch failed (%s error)", kind)
		os.Exit(kind.ExitCode())
	}
}
