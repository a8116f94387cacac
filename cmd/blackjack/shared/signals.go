package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// forcedExitCode is what a second interrupt exits with (128 + SIGINT)
const forcedExitCode = 130

// SetupSignalHandlerWithLogger returns a context for command that is
// cancelled on the first interrupt, so a simulation stops after its current
// rounds and a server drains its sessions. A second interrupt exits at once.
func SetupSignalHandlerWithLogger(logger zerolog.Logger, command string) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go watchSignals(sigChan, cancel, logger.With().Str("command", command).Logger(), os.Exit)
	return ctx
}

func watchSignals(sigs <-chan os.Signal, cancel context.CancelFunc, logger zerolog.Logger, exit func(int)) {
	sig, ok := <-sigs
	if !ok {
		return
	}
	logger.Info().Str("signal", sig.String()).Msg("Stopping, interrupt again to exit immediately")
	cancel()

	sig, ok = <-sigs
	if !ok {
		return
	}
	logger.Warn().Str("signal", sig.String()).Int("code", forcedExitCode).Msg("Exiting without cleanup")
	exit(forcedExitCode)
}
