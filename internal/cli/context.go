package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// commandContext is cancelled on interrupt or when --timeout elapses.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
