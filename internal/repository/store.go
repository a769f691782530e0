// Package repository is the entity store behind the user and account services.
//
// Every implementation guarantees single-document write atomicity only. Keeping
// User.Accounts consistent with Account.Owner across documents is the job of the
// command services, not the store.
package repository

import (
	"context"
	"errors"

	"github.com/eaglebank/bank-api/shared/models"
)

// ErrNotFound is returned when a document with the requested id does not exist.
var ErrNotFound = errors.New("document not found")

type UserFilter struct {
	IsActive *bool
}

func (f UserFilter) match(u *models.User) bool {
	return f.IsActive == nil || u.IsActive == *f.IsActive
}

type Threshold struct {
	Direction models.Direction
	Cash      *float64
	Credit    *float64
}

type AccountFilter struct {
	Owner     string
	Threshold *Threshold
}

func (f AccountFilter) match(a *models.Account) bool {
	if f.Owner != "" && a.Owner != f.Owner {
		return false
	}
	if t := f.Threshold; t != nil {
		if t.Cash != nil && !t.Direction.Matches(a.Cash, *t.Cash) {
			return false
		}
		if t.Credit != nil && !t.Direction.Matches(a.Credit, *t.Credit) {
			return false
		}
	}
	return true
}

type UserStore interface {
	// CreateUser assigns ID and timestamps on u before persisting it.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	// UpdateUser replaces the stored document and refreshes u.UpdatedAt.
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	FindAccounts(ctx context.Context, filter AccountFilter) ([]models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id string) error
	// DeleteAccountsByOwner removes every account owned by owner and reports how many went.
	DeleteAccountsByOwner(ctx context.Context, owner string) (int64, error)
}

// Store is the full entity store with an explicit lifecycle.
type Store interface {
	UserStore
	AccountStore
	Close() error
}
