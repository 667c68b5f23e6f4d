package scheduler

import "sync"

// dateLocks serializes schedule runs per date. Entries are reference
// counted and removed when the last holder releases, so the map does
// not grow with the calendar.
type dateLocks struct {
	mu    sync.Mutex
	locks map[string]*dateLock
}

type dateLock struct {
	mu   sync.Mutex
	refs int
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[string]*dateLock)}
}

func (l *dateLocks) lock(date string) func() {
	l.mu.Lock()
	entry, ok := l.locks[date]
	if !ok {
		entry = &dateLock{}
		l.locks[date] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, date)
		}
		l.mu.Unlock()
	}
}
