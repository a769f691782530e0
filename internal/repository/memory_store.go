package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eaglebank/bank-api/shared/models"
	"github.com/eaglebank/bank-api/shared/utils"
)

// MemoryStore keeps documents in process memory. Callers always receive copies.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	accounts map[string]*models.Account
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		accounts: make(map[string]*models.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = utils.GenerateID(utils.UserIDPrefix)
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	if u.Accounts == nil {
		u.Accounts = []string{}
	}
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) FindUsers(_ context.Context, filter UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.match(u) {
			out = append(out, *u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = s.now()
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = utils.GenerateID(utils.AccountIDPrefix)
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) FindAccounts(_ context.Context, filter AccountFilter) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if filter.match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *MemoryStore) UpdateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now()
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *MemoryStore) DeleteAccountsByOwner(_ context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, a := range s.accounts {
		if a.Owner == owner {
			delete(s.accounts, id)
			n++
		}
	}
	return n, nil
}

func createdBefore(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}
