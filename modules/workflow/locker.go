package workflow

import "sync"

// taskLocker serializes transitions per task within this process. The
// version column on the task row remains the cross-process guard; the
// in-process lock keeps the common case free of conflict retries.
type taskLocker struct {
	mu    sync.Mutex
	locks map[string]*taskLock
}

type taskLock struct {
	mu   sync.Mutex
	refs int
}

func newTaskLocker() *taskLocker {
	return &taskLocker{locks: make(map[string]*taskLock)}
}

// Lock acquires the lock for the given task and returns its release
// function. Lock entries are reference-counted and removed once unused so
// the map does not grow with task count.
func (l *taskLocker) Lock(taskID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[taskID]
	if !ok {
		entry = &taskLock{}
		l.locks[taskID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, taskID)
		}
		l.mu.Unlock()
	}
}
