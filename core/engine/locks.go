package engine

import "sync"

// keyedMutex serializes firings per dispatch id so a manual trigger and the
// scanner cannot interleave the persist-then-advance sequence for the same
// dispatch.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// lockEntry pairs the per-id mutex with the number of holders and waiters so
// entries can be dropped when the last one releases.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// lock acquires the mutex for the given key and returns its unlock function.
// The entry is evicted once no holder or waiter remains, so ids of deleted
// dispatches do not accumulate in the table.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
