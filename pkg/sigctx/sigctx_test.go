package sigctx

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnSignal(t *testing.T) {
	// keeps SIGUSR1 from reaching the default handler before onSignal subscribes
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGUSR1)
	defer signal.Stop(guard)

	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		onSignal(ctx, func() { calls.Add(1) }, syscall.SIGUSR1)
	}()

	assert.Eventually(t, func() bool {
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
		return calls.Load() >= 1
	}, time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onSignal did not return after cancel")
	}
}
