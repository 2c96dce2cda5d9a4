package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext is done on SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}

// OnHangup calls fn on every SIGHUP until ctx is done.
// Calls are sequential.
func OnHangup(ctx context.Context, fn func()) {
	onSignal(ctx, fn, syscall.SIGHUP)
}

func onSignal(ctx context.Context, fn func(), sig ...os.Signal) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig...)
	defer signal.Stop(c)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c:
			fn()
		}
	}
}
