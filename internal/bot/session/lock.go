package session

import "sync"

// KeyedLock serializes work per chat. Updates for one chat are handled one
// at a time while unrelated chats proceed in parallel.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewKeyedLock constructs an empty KeyedLock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[int64]*sync.Mutex)}
}

// Acquire blocks until the chat's lock is held and returns the release
// function. Chat locks are created on first use and kept for the life of
// the process; the per-chat footprint is a single mutex.
func (k *KeyedLock) Acquire(chatID int64) func() {
	k.mu.Lock()
	lock, ok := k.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[chatID] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
