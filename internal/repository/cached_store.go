package repository

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
)

const (
	userViewKeyPrefix    = "user:view:"
	accountViewKeyPrefix = "account:view:"
)

// CachedStore treats Redis as the primary read store for single-document lookups
// and falls back to the wrapped store transparently, warming the cache on every cold read.
// Every write goes to the wrapped store first and then refreshes or invalidates the cached view.
type CachedStore struct {
	Store
	users    *sharedredis.ViewCache[models.User]
	accounts *sharedredis.ViewCache[models.Account]
}

func NewCachedStore(next Store, client goredis.Cmdable, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:    next,
		users:    sharedredis.NewViewCache[models.User](client, userViewKeyPrefix, ttl),
		accounts: sharedredis.NewViewCache[models.Account](client, accountViewKeyPrefix, ttl),
	}
}

func (s *CachedStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return err
	}
	s.users.Set(ctx, u.ID, u)
	return nil
}

func (s *CachedStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users.Get(ctx, id); ok {
		return u, nil
	}
	u, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.users.Set(ctx, id, u)
	return u, nil
}

func (s *CachedStore) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.Store.UpdateUser(ctx, u); err != nil {
		// The stored document may or may not have changed; drop the view either way.
		s.users.Delete(ctx, u.ID)
		return err
	}
	s.users.Set(ctx, u.ID, u)
	return nil
}

func (s *CachedStore) DeleteUser(ctx context.Context, id string) error {
	err := s.Store.DeleteUser(ctx, id)
	s.users.Delete(ctx, id)
	return err
}

func (s *CachedStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if err := s.Store.CreateAccount(ctx, a); err != nil {
		return err
	}
	s.accounts.Set(ctx, a.ID, a)
	return nil
}

func (s *CachedStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := s.accounts.Get(ctx, id); ok {
		return a, nil
	}
	a, err := s.Store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	s.accounts.Set(ctx, id, a)
	return a, nil
}

func (s *CachedStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	if err := s.Store.UpdateAccount(ctx, a); err != nil {
		s.accounts.Delete(ctx, a.ID)
		return err
	}
	s.accounts.Set(ctx, a.ID, a)
	return nil
}

func (s *CachedStore) DeleteAccount(ctx context.Context, id string) error {
	err := s.Store.DeleteAccount(ctx, id)
	s.accounts.Delete(ctx, id)
	return err
}

func (s *CachedStore) DeleteAccountsByOwner(ctx context.Context, owner string) (int64, error) {
	owned, err := s.Store.FindAccounts(ctx, AccountFilter{Owner: owner})
	if err != nil {
		return 0, err
	}
	n, err := s.Store.DeleteAccountsByOwner(ctx, owner)
	for _, a := range owned {
		s.accounts.Delete(ctx, a.ID)
	}
	return n, err
}
