package pool

import (
	"sort"
	"sync"
)

// locker named mutexes. Keys of one Lock call are taken in sorted order, so
// callers that always lock users before assets never deadlock. An entry lives
// only while someone holds or waits for it.
type locker struct {
	mux   sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newLocker() *locker {
	return &locker{locks: map[string]*keyLock{}}
}

func (l *locker) acquire(key string) *keyLock {
	l.mux.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &keyLock{}
		l.locks[key] = m
	}
	m.refs++
	l.mux.Unlock()

	m.Lock()
	return m
}

func (l *locker) release(key string, m *keyLock) {
	m.Unlock()

	l.mux.Lock()
	if m.refs--; m.refs == 0 {
		delete(l.locks, key)
	}
	l.mux.Unlock()
}

// size number of live entries
func (l *locker) size() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.locks)
}

// Lock acquires every key and returns the release func
func (l *locker) Lock(prefix string, keys []string) func() {
	keys = uniq(keys)

	held := make([]*keyLock, 0, len(keys))
	for _, key := range keys {
		held = append(held, l.acquire(prefix+key))
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(prefix+keys[i], held[i])
		}
	}
}

func uniq(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}

		seen[k] = true
		out = append(out, k)
	}

	sort.Strings(out)
	return out
}
