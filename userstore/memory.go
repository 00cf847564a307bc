package userstore

import (
	"context"
	"sync"

	goGate "github.com/MrEthical07/goGate"
)

// Memory is a goGate.UserStore held in process memory. Usernames are unique
// and compared exactly.
type Memory struct {
	mu         sync.RWMutex
	byID       map[string]goGate.UserRecord
	byUsername map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:       make(map[string]goGate.UserRecord),
		byUsername: make(map[string]string),
	}
}

// CreateUser stores user. It fails with goGate.ErrUserExists when the
// username or ID is already present.
func (m *Memory) CreateUser(_ context.Context, user goGate.UserRecord) (goGate.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byUsername[user.Username]; ok {
		return goGate.UserRecord{}, goGate.ErrUserExists
	}
	if _, ok := m.byID[user.ID]; ok {
		return goGate.UserRecord{}, goGate.ErrUserExists
	}

	m.byID[user.ID] = user
	m.byUsername[user.Username] = user.ID
	return user, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (goGate.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return goGate.UserRecord{}, goGate.ErrUserNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (goGate.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return goGate.UserRecord{}, goGate.ErrUserNotFound
	}
	return m.byID[id], nil
}

// UpdatePasswordHash replaces the stored hash of user id.
func (m *Memory) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return goGate.ErrUserNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

// Len returns the number of stored users.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
