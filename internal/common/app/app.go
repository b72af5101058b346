package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// CreateContextWithShutdown returns a context that is cancelled on the first SIGINT or SIGTERM.
// Cancelling it kills the process a backend is waiting on and stops the sequential loop
// before its next run. A second signal exits immediately.
func CreateContextWithShutdown() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			log.Warnf("Received %s, stopping; signal again to exit now", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		sig := <-c
		log.Errorf("Received %s again, exiting", sig)
		os.Exit(130)
	}()
	return ctx
}
