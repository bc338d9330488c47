package app

import (
	"sync"

	"github.com/google/uuid"
)

// UserLocks serializes cart mutation per user. Overlapping add/remove calls
// from the same user (double-click, duplicated tab) would otherwise race
// read-modify-write cycles; no cross-user contention exists because every
// user owns exactly one cart.
type UserLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the user's mutex and returns the unlock function.
func (l *UserLocks) Lock(userID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
