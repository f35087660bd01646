package cart

import "sync"

// userLocks serializes cart mutations per user within the process. The
// store gives single-document atomicity only, so concurrent read-modify-
// write cycles on the same cart would otherwise race.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (ul *userLocks) get(key string) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	l, ok := ul.locks[key]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[key] = l
	}
	return l
}

// Lock acquires the mutation lock for a user and returns the unlock func.
func (ul *userLocks) Lock(key string) func() {
	l := ul.get(key)
	l.Lock()
	return l.Unlock
}
