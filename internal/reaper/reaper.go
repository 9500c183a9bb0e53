// Package reaper runs the background sweep that physically deletes
// expired tresses. Reads already treat expired rows as absent, so the
// sweep is garbage collection, not a visibility mechanism.
package reaper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultInterval is the normal sweep cadence.
	DefaultInterval = time.Hour
	// DefaultRetryInterval is the degraded cadence after a failed sweep.
	DefaultRetryInterval = 5 * time.Minute
)

// Store is the slice of the tress repository the reaper needs.
type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper deletes expired tresses on a fixed interval, independent of
// request traffic.
//
// One sweep is one bulk DELETE, atomic at the store level. The loop is
// sequential with itself — a sweep must finish (or fail) before the next
// timer starts — so sweeps never overlap. After a failure the next attempt
// comes after the shorter retry interval; a success restores the normal
// cadence.
//
// Start/Stop are the lifecycle hooks the process owner drives: Start
// launches the goroutine, Stop cancels the wait and blocks until the loop
// has exited. Cancellation interrupts waiting, not a sweep already in
// flight.
type Reaper struct {
	store         Store
	logger        *slog.Logger
	interval      time.Duration
	retryInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a Reaper with the default hourly/5-minute cadence.
func New(store Store, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:         store,
		logger:        logger,
		interval:      DefaultInterval,
		retryInterval: DefaultRetryInterval,
	}
}

// NewWithIntervals creates a Reaper with custom cadences. Tests use short
// ones.
func NewWithIntervals(store Store, logger *slog.Logger, interval, retry time.Duration) *Reaper {
	r := New(store, logger)
	r.interval = interval
	r.retryInterval = retry
	return r
}

// Start launches the sweep loop. The first sweep runs immediately, then
// the loop waits out the interval between sweeps. Call Stop to shut down.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)
}

// Stop cancels the loop and waits for it to exit. Safe to call more than
// once; a no-op if Start was never called.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.once.Do(func() {
		r.cancel()
		<-r.done
	})
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.done)

	r.logger.Info("expiry reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("retryInterval", r.retryInterval),
	)

	wait := time.Duration(0) // first sweep is immediate
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry reaper stopped")
			return
		case <-timer.C:
		}

		if err := r.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("expiry reaper stopped")
				return
			}
			r.logger.Error("sweep failed, backing off",
				slog.String("error", err.Error()),
				slog.Duration("retryIn", r.retryInterval),
			)
			wait = r.retryInterval
		} else {
			wait = r.interval
		}

		timer.Reset(wait)
	}
}

// Sweep performs one bulk delete of everything past its expiry. Exported
// so an operator entry point (or a test) can force a sweep outside the
// schedule.
func (r *Reaper) Sweep(ctx context.Context) error {
	deleted, err := r.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if deleted > 0 {
		r.logger.Info("deleted expired tresses", slog.Int64("count", deleted))
	} else {
		r.logger.Debug("no expired tresses found")
	}
	return nil
}
