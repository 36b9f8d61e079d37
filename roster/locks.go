package roster

import "sync"

// eventLocks hands out one mutex per event id so roster mutations on the
// same event never interleave their read-validate-write sequences. Locks
// are not evicted; the map is bounded by the number of events seen over
// the process lifetime.
type eventLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// lock acquires the mutex for eventID and returns its unlock func.
func (l *eventLocks) lock(eventID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sync.Mutex)
	}
	em, ok := l.m[eventID]
	if !ok {
		em = &sync.Mutex{}
		l.m[eventID] = em
	}
	l.mu.Unlock()

	em.Lock()
	return em.Unlock
}
