package runtime

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"
)

func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ShutdownHook releases one resource during graceful shutdown.
type ShutdownHook struct {
	Name string
	Stop func(context.Context) error
}

// Shutdown runs hooks in order under a shared deadline and joins their errors.
func Shutdown(timeout time.Duration, hooks ...ShutdownHook) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, h := range hooks {
		if h.Stop == nil {
			continue
		}
		if err := h.Stop(ctx); err != nil {
			errs = append(errs, errors.New(h.Name+": "+err.Error()))
		}
	}
	return errors.Join(errs...)
}
