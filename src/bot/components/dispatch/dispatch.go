// Package dispatch serializes conversation handling per user. Discord
// delivers events on many goroutines; two quick taps from one user must
// not interleave inside the flow engine, while different users should
// never wait on each other.
package dispatch

import "sync"

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Dispatcher hands out one lock per active key and retires locks nobody
// is waiting on.
type Dispatcher struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

func New() *Dispatcher {
	return &Dispatcher{locks: make(map[string]*userLock)}
}

// Do runs fn while holding the lock for key. Calls sharing a key run one
// at a time; calls with distinct keys proceed in parallel.
func (d *Dispatcher) Do(key string, fn func()) {
	l := d.acquire(key)
	defer d.release(key, l)

	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (d *Dispatcher) acquire(key string) *userLock {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[key]
	if !ok {
		l = &userLock{}
		d.locks[key] = l
	}
	l.refs++
	return l
}

func (d *Dispatcher) release(key string, l *userLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, key)
	}
}

// Active reports how many keys currently hold or wait on a lock.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
