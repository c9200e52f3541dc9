package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store keeping records in a map guarded by
// per-account locks. Update serializes mutations per account id while leaving
// different accounts free to proceed in parallel, which is exactly the
// concurrency contract the billing engine needs without a database.
type MemoryStore struct {
	mu      sync.RWMutex // guards the maps below, not record contents
	records map[uuid.UUID]*Account
	bySub   map[string]uuid.UUID
	locks   map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore returns an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*Account),
		bySub:   make(map[string]uuid.UUID),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.records[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) GetByExternalSubscriptionID(ctx context.Context, subscriptionID string) (*Account, error) {
	if subscriptionID == "" {
		return nil, ErrAccountNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySub[subscriptionID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a, ok := s.records[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[a.ID]; exists {
		return ErrAccountAlreadyExists
	}

	cp := a.Clone()
	s.records[a.ID] = cp
	if cp.ExternalSubscriptionID != "" {
		s.bySub[cp.ExternalSubscriptionID] = cp.ID
	}
	return nil
}

// Update applies fn under the account's own lock. The mutator works on a copy
// so a failed mutation leaves the stored record untouched.
func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, fn Mutator) (*Account, error) {
	lock, err := s.lockFor(id)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	if current.ExternalSubscriptionID != next.ExternalSubscriptionID {
		if current.ExternalSubscriptionID != "" {
			delete(s.bySub, current.ExternalSubscriptionID)
		}
		if next.ExternalSubscriptionID != "" {
			s.bySub[next.ExternalSubscriptionID] = id
		}
	}
	s.records[id] = next
	s.mu.Unlock()

	return next.Clone(), nil
}

// lockFor returns the mutex dedicated to the account, creating it on first use.
// Missing accounts still get a lock so concurrent Create/Update interleavings
// resolve to a plain not-found instead of a race.
func (s *MemoryStore) lockFor(id uuid.UUID) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock, nil
}
