package application

import "sync"

// roomLocks serializes booking mutations per room so that the overlap check
// and the write for one room never interleave with another submission for the
// same room. Different rooms proceed concurrently.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// Lock acquires the mutex for roomID, creating it on first use.
func (r *roomLocks) Lock(roomID string) {
	r.mu.Lock()
	lock, ok := r.locks[roomID]
	if !ok {
		lock = &roomLock{}
		r.locks[roomID] = lock
	}
	lock.refs++
	r.mu.Unlock()

	lock.mu.Lock()
}

// Unlock releases the mutex for roomID and discards it once no waiter remains.
func (r *roomLocks) Unlock(roomID string) {
	r.mu.Lock()
	lock, ok := r.locks[roomID]
	if ok {
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, roomID)
		}
	}
	r.mu.Unlock()

	if ok {
		lock.mu.Unlock()
	}
}
