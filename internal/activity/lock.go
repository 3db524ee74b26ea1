package activity

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// ctxLock is a mutex whose acquisition can be abandoned through a context.
type ctxLock struct {
	sem *semaphore.Weighted
}

func newCtxLock() ctxLock {
	return ctxLock{sem: semaphore.NewWeighted(1)}
}

func (l ctxLock) lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// mustLock waits for the lock with no deadline.
func (l ctxLock) mustLock() {
	_ = l.sem.Acquire(context.Background(), 1)
}

func (l ctxLock) unlock() {
	l.sem.Release(1)
}
