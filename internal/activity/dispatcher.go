package activity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
)

// Lookup resolves an identifier to a live activity.
type Lookup func(id model.Identifier) (*Activity, bool)

// Dispatcher consumes property updates and delivers them to subscribers.
type Dispatcher struct {
	updates *queue.Unbounded[model.Update]
	lookup  Lookup
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher reading from updates.
func NewDispatcher(updates *queue.Unbounded[model.Update], lookup Lookup, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		updates: updates,
		lookup:  lookup,
		logger:  logger,
	}
}

// Run receives updates until ctx is done or the queue is closed and drained.
// Each update is handed to schedule, which must run the callback on the UI
// thread and preserve call order (glib.IdleAdd does both).
func (d *Dispatcher) Run(ctx context.Context, schedule func(func())) error {
	for {
		u, err := d.updates.Recv(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return err
		}
		schedule(func() { d.Deliver(u) })
	}
}

// Drain delivers every pending update synchronously. UI thread only.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		u, ok := d.updates.TryRecv()
		if !ok {
			return n
		}
		d.Deliver(u)
		n++
	}
}

// Deliver routes one update. Updates for activities or properties that no
// longer exist are dropped.
func (d *Dispatcher) Deliver(u model.Update) {
	a, ok := d.lookup(u.ID)
	if !ok {
		d.logger.Debug("dropping update for unknown activity", "activity", u.ID, "property", u.Property)
		return
	}
	if err := a.Deliver(u); err != nil {
		d.logger.Debug("dropping update", "activity", u.ID, "property", u.Property, "error", err)
	}
}
