package session

import "sync"

// Store tracks the dialog state of each chat.
type Store interface {
	// Get returns the chat's current state. The second result is false when
	// the chat never started a dialog, in which case the state is Idle.
	Get(chatID int64) (State, bool)

	// Put replaces the chat's state.
	Put(chatID int64, st State)

	// Reset returns the chat's dialog to Idle, dropping any collected
	// fields. The chat stays known, so the start button keeps working.
	Reset(chatID int64)
}

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore constructs an in-memory Store. State is lost on restart,
// which for a short dialog just means the resident sends /start again.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[int64]State)}
}

func (s *memoryStore) Get(chatID int64) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.states[chatID]; ok {
		return st, true
	}
	return Idle{}, false
}

func (s *memoryStore) Put(chatID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[chatID] = st
}

func (s *memoryStore) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[chatID] = Idle{}
}
