package subscription

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryStore returns an AccountStore kept in process memory.
// Records are deep-copied in and out so callers never share state with the store.
func NewMemoryStore(seed ...*Account) AccountStore {
	s := &memoryStore{accounts: make(map[string]*Account, len(seed))}
	for _, a := range seed {
		s.accounts[a.ID] = a.Clone()
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Account
	for _, a := range s.accounts {
		if a.Email != email {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousEmail
		}
		found = a
	}
	if found == nil {
		return nil, ErrAccountNotFound
	}
	return found.Clone(), nil
}

func (s *memoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return ErrAccountAlreadyExists
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *memoryStore) UpdateSubscription(_ context.Context, id string, update SubscriptionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.Apply(update)
	return nil
}

func (s *memoryStore) AppendPayment(_ context.Context, id string, entry PaymentEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return false, ErrAccountNotFound
	}
	if a.HasPayment(entry.ID) {
		return false, nil
	}
	a.PaymentHistory = append(a.PaymentHistory, entry)
	return true, nil
}
