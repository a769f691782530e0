package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
)

func newServices(store repository.Store, cashFloor bool) (*UserCommandService, *AccountCommandService, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewUserCommandService(store, pub), NewAccountCommandService(store, pub, cashFloor), pub
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, pub := newServices(store, false)
	active := newUser(t, users, true)
	inactive := newUser(t, users, false)

	t.Run("appends id to owner", func(t *testing.T) {
		a := newAccount(t, accounts, active.ID, 100, 50)
		assert.Equal(t, active.ID, a.Owner)

		owner, err := store.GetUser(ctx, active.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, owner.Accounts)
		assert.Contains(t, pub.published(), events.AccountCreated)
	})

	tests := []struct {
		name    string
		cmd     cqrs.CreateAccountCommand
		wantErr error
	}{
		{"missing owner", cqrs.CreateAccountCommand{Cash: ptr(1.0), Credit: ptr(1.0)}, errs.ErrValidation},
		{"missing cash", cqrs.CreateAccountCommand{Owner: active.ID, Credit: ptr(1.0)}, errs.ErrValidation},
		{"zero credit", cqrs.CreateAccountCommand{Owner: active.ID, Cash: ptr(1.0), Credit: ptr(0.0)}, errs.ErrValidation},
		{"negative credit", cqrs.CreateAccountCommand{Owner: active.ID, Cash: ptr(1.0), Credit: ptr(-1.0)}, errs.ErrValidation},
		{"unknown owner", cqrs.CreateAccountCommand{Owner: "usr-missing", Cash: ptr(1.0), Credit: ptr(1.0)}, errs.ErrNotFound},
		{"inactive owner", cqrs.CreateAccountCommand{Owner: inactive.ID, Cash: ptr(100.0), Credit: ptr(50.0)}, errs.ErrInactiveOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.CreateAccount(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateAccountCompensatesOwnerWriteFailure(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	store := &faultyStore{Store: mem}
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)

	store.updateUser = func(*models.User) error { return errStoreDown }
	_, err := accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{Owner: owner.ID, Cash: ptr(10.0), Credit: ptr(5.0)})
	assert.ErrorIs(t, err, errs.ErrStore)

	left, err := mem.FindAccounts(ctx, repository.AccountFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)

	store.deleteAccount = func(string) error { return errStoreDown }
	_, err = accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{Owner: owner.ID, Cash: ptr(10.0), Credit: ptr(5.0)})
	assert.ErrorIs(t, err, errs.ErrIntegrity)
}

func TestCreateAccountRollbackFailureIsReconciled(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	store := &faultyStore{Store: mem}
	users, accounts, pub := newServices(store, false)
	owner := newUser(t, users, true)

	store.updateUser = func(*models.User) error { return errStoreDown }
	store.deleteAccount = func(string) error { return errStoreDown }
	_, err := accounts.CreateAccount(ctx, cqrs.CreateAccountCommand{Owner: owner.ID, Cash: ptr(10.0), Credit: ptr(5.0)})
	require.ErrorIs(t, err, errs.ErrIntegrity)

	orphans, err := mem.FindAccounts(ctx, repository.AccountFilter{Owner: owner.ID})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	u, err := mem.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Accounts)

	event, ok := pub.last(events.AccountCreated)
	require.True(t, ok, "account.created must be published for the orphaned account")
	var data events.AccountCreatedEvent
	require.NoError(t, event.Decode(&data))
	assert.Equal(t, orphans[0].ID, data.AccountID)
	assert.Equal(t, owner.ID, data.Owner)

	store.updateUser = nil
	store.deleteAccount = nil
	require.NoError(t, users.HandleAccountEvent(ctx, event))

	u, err = mem.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{orphans[0].ID}, u.Accounts)
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 100, 50)

	updated, err := accounts.UpdateAccount(ctx, cqrs.UpdateAccountCommand{AccountID: a.ID, Cash: ptr(-20.0)})
	require.NoError(t, err)
	assert.Equal(t, -20.0, updated.Cash)
	assert.Equal(t, 50.0, updated.Credit)

	_, err = accounts.UpdateAccount(ctx, cqrs.UpdateAccountCommand{AccountID: a.ID, Credit: ptr(-1.0)})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = accounts.UpdateAccount(ctx, cqrs.UpdateAccountCommand{AccountID: "acc-missing", Cash: ptr(1.0)})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = users.UpdateUser(ctx, cqrs.UpdateUserCommand{UserID: owner.ID, IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = accounts.UpdateAccount(ctx, cqrs.UpdateAccountCommand{AccountID: a.ID, Cash: ptr(1.0)})
	assert.ErrorIs(t, err, errs.ErrInactiveOwner)
}

func TestAdjustAccountCreditLimit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 100, 50)

	_, err := accounts.AdjustAccount(ctx, cqrs.AdjustAccountCommand{AccountID: a.ID, Credit: ptr(-60.0)})
	assert.ErrorIs(t, err, errs.ErrCreditLimitExceeded)

	adjusted, err := accounts.AdjustAccount(ctx, cqrs.AdjustAccountCommand{AccountID: a.ID, Credit: ptr(-50.0), Cash: ptr(-150.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, adjusted.Credit)
	assert.Equal(t, -50.0, adjusted.Cash)

	stored, err := store.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, adjusted.Cash, stored.Cash)
	assert.Equal(t, adjusted.Credit, stored.Credit)
}

func TestCashFloor(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, _ := newServices(store, true)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 100, 50)
	b := newAccount(t, accounts, owner.ID, 10, 10)

	_, err := accounts.AdjustAccount(ctx, cqrs.AdjustAccountCommand{AccountID: a.ID, Cash: ptr(-101.0)})
	assert.ErrorIs(t, err, errs.ErrInsufficientCash)

	_, err = accounts.UpdateAccount(ctx, cqrs.UpdateAccountCommand{AccountID: a.ID, Cash: ptr(-1.0)})
	assert.ErrorIs(t, err, errs.ErrInsufficientCash)

	_, _, err = accounts.Transfer(ctx, cqrs.TransferCommand{FromAccountID: b.ID, ToAccountID: a.ID, Cash: ptr(11.0)})
	assert.ErrorIs(t, err, errs.ErrInsufficientCash)

	adjusted, err := accounts.AdjustAccount(ctx, cqrs.AdjustAccountCommand{AccountID: a.ID, Cash: ptr(-100.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, adjusted.Cash)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	keep := newAccount(t, accounts, owner.ID, 1, 1)
	gone := newAccount(t, accounts, owner.ID, 2, 2)

	deleted, err := accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: gone.ID})
	require.NoError(t, err)
	assert.Equal(t, gone.ID, deleted.ID)

	_, err = store.GetAccount(ctx, gone.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	u, err := store.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, u.Accounts)

	_, err = accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: gone.ID})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// An account missing from its owner's list is an integrity problem.
	_, err = users.UpdateUser(ctx, cqrs.UpdateUserCommand{UserID: owner.ID, Accounts: &[]string{}})
	require.NoError(t, err)
	_, err = accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: keep.ID})
	assert.ErrorIs(t, err, errs.ErrIntegrity)
}

func TestDeleteAccountRestoresOwnerOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	store := &faultyStore{Store: mem}
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 1, 1)

	store.deleteAccount = func(string) error { return errStoreDown }
	_, err := accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: a.ID})
	assert.ErrorIs(t, err, errs.ErrStore)

	u, err := mem.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, u.Accounts)
}

func TestDeleteAccountRestoreFailureIsReconciled(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	store := &faultyStore{Store: mem}
	users, accounts, pub := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 1, 1)

	// The unlink succeeds, the delete fails and so does the restore.
	writes := 0
	store.updateUser = func(*models.User) error {
		writes++
		if writes > 1 {
			return errStoreDown
		}
		return nil
	}
	store.deleteAccount = func(string) error { return errStoreDown }
	_, err := accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: a.ID})
	require.ErrorIs(t, err, errs.ErrIntegrity)

	u, err := mem.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Accounts)
	_, err = mem.GetAccount(ctx, a.ID)
	require.NoError(t, err)

	event, ok := pub.last(events.AccountCreated)
	require.True(t, ok)
	var data events.AccountCreatedEvent
	require.NoError(t, event.Decode(&data))
	assert.Equal(t, a.ID, data.AccountID)
	assert.NotContains(t, pub.published(), events.AccountDeleted)

	store.updateUser = nil
	store.deleteAccount = nil
	require.NoError(t, users.HandleAccountEvent(ctx, event))

	u, err = mem.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, u.Accounts)
}

func TestDeleteAccountOfInactiveOwner(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 5, 5)

	_, err := users.UpdateUser(ctx, cqrs.UpdateUserCommand{UserID: owner.ID, IsActive: ptr(false)})
	require.NoError(t, err)

	deleted, err := accounts.DeleteAccount(ctx, cqrs.DeleteAccountCommand{AccountID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, deleted.ID)

	u, err := store.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Accounts)
	assert.False(t, u.IsActive)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users, accounts, pub := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 100, 50)
	b := newAccount(t, accounts, owner.ID, 10, 5)
	poor := newAccount(t, accounts, owner.ID, 10, 20)

	_, _, err := accounts.Transfer(ctx, cqrs.TransferCommand{FromAccountID: poor.ID, ToAccountID: b.ID, Credit: ptr(30.0)})
	assert.ErrorIs(t, err, errs.ErrCreditLimitExceeded)

	from, to, err := accounts.Transfer(ctx, cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Credit: ptr(30.0), Cash: ptr(40.0)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, from.Credit)
	assert.Equal(t, 60.0, from.Cash)
	assert.Equal(t, 35.0, to.Credit)
	assert.Equal(t, 50.0, to.Cash)
	assert.Contains(t, pub.published(), events.TransferCompleted)

	stored, err := store.GetAccount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 35.0, stored.Credit)

	tests := []struct {
		name    string
		cmd     cqrs.TransferCommand
		wantErr error
	}{
		{"no amounts", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID}, errs.ErrValidation},
		{"zero amounts", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Cash: ptr(0.0)}, errs.ErrValidation},
		{"missing ids", cqrs.TransferCommand{Cash: ptr(1.0)}, errs.ErrValidation},
		{"negative cash", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Cash: ptr(-1.0)}, errs.ErrValidation},
		{"negative credit", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Credit: ptr(-1.0)}, errs.ErrValidation},
		{"same account", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: a.ID, Cash: ptr(1.0)}, errs.ErrValidation},
		{"unknown source", cqrs.TransferCommand{FromAccountID: "acc-missing", ToAccountID: b.ID, Cash: ptr(1.0)}, errs.ErrNotFound},
		{"unknown destination", cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: "acc-missing", Cash: ptr(1.0)}, errs.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := accounts.Transfer(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = users.UpdateUser(ctx, cqrs.UpdateUserCommand{UserID: owner.ID, IsActive: ptr(false)})
	require.NoError(t, err)
	_, _, err = accounts.Transfer(ctx, cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Cash: ptr(1.0)})
	assert.ErrorIs(t, err, errs.ErrInactiveOwner)
}

func TestTransferRestoresSourceOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	store := &faultyStore{Store: mem}
	users, accounts, _ := newServices(store, false)
	owner := newUser(t, users, true)
	a := newAccount(t, accounts, owner.ID, 100, 50)
	b := newAccount(t, accounts, owner.ID, 10, 5)

	store.updateAccount = func(acc *models.Account) error {
		if acc.ID == b.ID {
			return errStoreDown
		}
		return nil
	}
	_, _, err := accounts.Transfer(ctx, cqrs.TransferCommand{FromAccountID: a.ID, ToAccountID: b.ID, Cash: ptr(40.0)})
	assert.ErrorIs(t, err, errs.ErrStore)

	source, err := mem.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, source.Cash)
	assert.Equal(t, 50.0, source.Credit)
}
