package quiz

import "sync"

// identityLocks hands out one mutex per identity and forgets it when the last
// holder releases it.
type identityLocks struct {
	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[string]*identityLock)}
}

func (l *identityLocks) lock(identity string) (unlock func()) {
	l.mu.Lock()
	il, ok := l.locks[identity]
	if !ok {
		il = &identityLock{}
		l.locks[identity] = il
	}
	il.refs++
	l.mu.Unlock()

	il.mu.Lock()
	return func() {
		il.mu.Unlock()
		l.mu.Lock()
		il.refs--
		if il.refs == 0 {
			delete(l.locks, identity)
		}
		l.mu.Unlock()
	}
}
