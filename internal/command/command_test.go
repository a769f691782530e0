package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
)

var errStoreDown = errors.New("store unavailable")

func ptr[T any](v T) *T { return &v }

// faultyStore wraps a real store and lets a test fail selected writes.
type faultyStore struct {
	repository.Store
	updateUser    func(u *models.User) error
	updateAccount func(a *models.Account) error
	deleteAccount func(id string) error
	deleteByOwner func(owner string) error
}

func (f *faultyStore) UpdateUser(ctx context.Context, u *models.User) error {
	if f.updateUser != nil {
		if err := f.updateUser(u); err != nil {
			return err
		}
	}
	return f.Store.UpdateUser(ctx, u)
}

func (f *faultyStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	if f.updateAccount != nil {
		if err := f.updateAccount(a); err != nil {
			return err
		}
	}
	return f.Store.UpdateAccount(ctx, a)
}

func (f *faultyStore) DeleteAccount(ctx context.Context, id string) error {
	if f.deleteAccount != nil {
		if err := f.deleteAccount(id); err != nil {
			return err
		}
	}
	return f.Store.DeleteAccount(ctx, id)
}

func (f *faultyStore) DeleteAccountsByOwner(ctx context.Context, owner string) (int64, error) {
	if f.deleteByOwner != nil {
		if err := f.deleteByOwner(owner); err != nil {
			return 0, err
		}
	}
	return f.Store.DeleteAccountsByOwner(ctx, owner)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events.Event{Type: eventType, Data: data})
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// last returns the most recent event of the given type.
func (p *recordingPublisher) last(eventType string) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i], true
		}
	}
	return events.Event{}, false
}

func newUser(t *testing.T, users *UserCommandService, active bool) *models.User {
	t.Helper()
	ctx := context.Background()
	u, err := users.CreateUser(ctx, cqrs.CreateUserCommand{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	if !active {
		u, err = users.UpdateUser(ctx, cqrs.UpdateUserCommand{UserID: u.ID, IsActive: ptr(false)})
		require.NoError(t, err)
	}
	return u
}

func newAccount(t *testing.T, accounts *AccountCommandService, owner string, cash, credit float64) *models.Account {
	t.Helper()
	a, err := accounts.CreateAccount(context.Background(), cqrs.CreateAccountCommand{
		Owner:  owner,
		Cash:   ptr(cash),
		Credit: ptr(credit),
	})
	require.NoError(t, err)
	return a
}
