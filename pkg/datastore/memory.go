package datastore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NicolasHaas/gotalk/pkg/model"
)

// Compile-time check: *MemoryStore implements DataProviderFactory.
var _ DataProviderFactory = (*MemoryStore)(nil)

// MemoryStore provides an in-memory DataStore implementation for tests.
// It mirrors SQLite behavior for validation and error handling.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	nextMessageID int64
	accounts      map[string]*model.Account
	messages      []model.Message
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		now:           now,
		nextMessageID: 1,
		accounts:      make(map[string]*model.Account),
	}
}

// NonTx returns the store itself; every operation already takes the lock.
func (s *MemoryStore) NonTx() DataStore {
	return s
}

// Tx returns a transaction view. Individual operations are atomic under the
// store lock, so Commit and Rollback are no-ops.
func (s *MemoryStore) Tx(_ context.Context) (DataStoreTx, error) {
	return &memoryTx{MemoryStore: s}, nil
}

type memoryTx struct {
	*MemoryStore
}

func (t *memoryTx) Commit() error   { return nil }
func (t *memoryTx) Rollback() error { return nil }

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateAccount stores a new account, rejecting duplicate usernames.
func (s *MemoryStore) CreateAccount(username, passwordSalt, passwordHash string) error {
	if err := model.ValidateUsername(username); err != nil {
		return fmt.Errorf("store: create account: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; exists {
		return fmt.Errorf("store: create account: %w", model.ErrAccountExists)
	}
	s.accounts[username] = &model.Account{
		Username:     username,
		PasswordSalt: passwordSalt,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	return nil
}

// GetAccount retrieves an account by username, or (nil, nil) when absent.
func (s *MemoryStore) GetAccount(username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, nil
	}
	copyAccount := *account
	return &copyAccount, nil
}

// SaveMessage persists a chat message and fills in the assigned ID.
func (s *MemoryStore) SaveMessage(message *model.Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("store: save message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now().UTC()
	}
	message.ID = s.nextMessageID
	s.nextMessageID++
	s.messages = append(s.messages, *message)
	return nil
}

// RecentMessages returns the newest limit messages, ordered oldest first.
func (s *MemoryStore) RecentMessages(limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit < 0 {
		limit = 0
	}
	start := len(s.messages) - limit
	if start < 0 {
		start = 0
	}
	out := make([]model.Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out, nil
}
