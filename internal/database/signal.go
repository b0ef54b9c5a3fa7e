package database

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a child of parent that is cancelled on the first SIGINT
// or SIGTERM. onSignal, when non-nil, sees the signal before the context is cancelled.
// Calling the returned cancel func also stops signal delivery.
func SetupSignalHandler(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		var sig os.Signal
		select {
		case <-ctx.Done():
			return
		case sig = <-signals:
		}
		if onSignal != nil {
			onSignal(sig)
		}
		cancel()
	}()

	return ctx, cancel
}
