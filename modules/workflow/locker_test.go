package workflow

import (
	"sync"
	"testing"
)

func TestTaskLocker_SerializesSameTask(t *testing.T) {
	locker := newTaskLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("task-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestTaskLocker_ReleasesEntries(t *testing.T) {
	locker := newTaskLocker()

	unlock := locker.Lock("task-1")
	unlock()

	locker.mu.Lock()
	remaining := len(locker.locks)
	locker.mu.Unlock()
	if remaining != 0 {
		t.Errorf("len(locks) = %d after release, want 0", remaining)
	}
}

func TestTaskLocker_IndependentTasks(t *testing.T) {
	locker := newTaskLocker()

	unlockA := locker.Lock("task-a")
	done := make(chan struct{})
	go func() {
		unlockB := locker.Lock("task-b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
