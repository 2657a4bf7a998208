package reconciler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// groupLocks serializes writers per group. Each group gets a one-slot
// semaphore so waiting honors context cancellation; entries are dropped once
// nobody holds or waits for them.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*groupLock)}
}

// acquire blocks until the group's lock is held or ctx is done.
// The returned func releases the lock.
func (l *groupLocks) acquire(ctx context.Context, groupID string) (func(), error) {
	l.mu.Lock()
	gl, ok := l.locks[groupID]
	if !ok {
		gl = &groupLock{sem: semaphore.NewWeighted(1)}
		l.locks[groupID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	if err := gl.sem.Acquire(ctx, 1); err != nil {
		l.unref(groupID, gl)
		return nil, err
	}

	return func() {
		gl.sem.Release(1)
		l.unref(groupID, gl)
	}, nil
}

func (l *groupLocks) unref(groupID string, gl *groupLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, groupID)
	}
}

// size reports how many groups currently have a holder or waiter.
func (l *groupLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
