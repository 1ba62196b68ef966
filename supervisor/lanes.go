package supervisor

import "sync"

// laneLocks serializes turns per lead: turns for the same lead run one at a
// time so a snapshot in flight can never be stale relative to a concurrent
// turn for that lead, while turns for different leads proceed fully in
// parallel. Entries are reference counted and removed when idle so the map
// does not grow with the lead population.
type laneLocks struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	mu   sync.Mutex
	refs int
}

func newLaneLocks() *laneLocks {
	return &laneLocks{lanes: make(map[string]*lane)}
}

// acquire blocks until the lead's lane is free and returns the release
// function.
func (l *laneLocks) acquire(key string) func() {
	l.mu.Lock()
	ln, ok := l.lanes[key]
	if !ok {
		ln = &lane{}
		l.lanes[key] = ln
	}
	ln.refs++
	l.mu.Unlock()

	ln.mu.Lock()
	return func() {
		ln.mu.Unlock()
		l.mu.Lock()
		ln.refs--
		if ln.refs == 0 {
			delete(l.lanes, key)
		}
		l.mu.Unlock()
	}
}
