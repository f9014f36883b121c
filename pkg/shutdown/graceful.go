// Package shutdown turns process signals into context cancellation and runs
// the ordered teardown of long-lived components.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// WithSignals returns a context cancelled on the first SIGINT or SIGTERM.
// Signal delivery stops once the context is done.
func WithSignals(ctx context.Context, log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Info("shutdown requested", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Step stops one component.
type Step struct {
	Name string
	Stop func(ctx context.Context) error
}

// Run stops steps in order under a shared deadline. A failing step does not
// prevent later ones; all failures are returned joined.
func Run(log *slog.Logger, timeout time.Duration, steps ...Step) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, s := range steps {
		start := time.Now()
		if err := s.Stop(ctx); err != nil {
			log.Error("shutdown step failed", "step", s.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		log.Debug("shutdown step done", "step", s.Name, "took", time.Since(start))
	}
	return errors.Join(errs...)
}
