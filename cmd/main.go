package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/dupx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	if err := runner.App().Run(ctx, os.Args); err != nil {
		logger.Error("application error", "error", err)
		stop()
		os.Exit(1)
	}
}
