package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
)

// AccountCommandService mutates accounts and keeps the owner's accounts list in step.
type AccountCommandService struct {
	store     repository.Store
	publisher events.Emitter
	cashFloor bool
}

// NewAccountCommandService builds the service. With cashFloor set, no operation
// may leave an account with negative cash.
func NewAccountCommandService(store repository.Store, publisher events.Emitter, cashFloor bool) *AccountCommandService {
	return &AccountCommandService{
		store:     store,
		publisher: publisher,
		cashFloor: cashFloor,
	}
}

func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	if cmd.Owner == "" || deref(cmd.Cash) == 0 || deref(cmd.Credit) == 0 {
		return nil, errs.Validation("All fields are required")
	}
	if *cmd.Credit < 0 {
		return nil, errs.Validation("credit cannot be negative")
	}

	owner, err := s.store.GetUser(ctx, cmd.Owner)
	if err != nil {
		return nil, lookupError(err, "Cannot find user")
	}
	if !owner.IsActive {
		return nil, errs.InactiveOwner("Cannot create account for inactive user")
	}
	if s.cashFloor && *cmd.Cash < 0 {
		return nil, errs.New(errs.ErrInsufficientCash, "cash cannot be negative")
	}

	account := &models.Account{
		Owner:  owner.ID,
		Cash:   *cmd.Cash,
		Credit: *cmd.Credit,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, errs.Store("Server error", err)
	}

	owner.AddAccount(account.ID)
	if err := s.store.UpdateUser(ctx, owner); err != nil {
		if cerr := s.store.DeleteAccount(ctx, account.ID); cerr != nil {
			slog.Error("failed to roll back account creation", "account", account.ID, "error", cerr)
			s.announceAccount(ctx, account)
			return nil, errs.Wrap(errs.ErrIntegrity, "Account created without owner reference", errors.Join(err, cerr))
		}
		return nil, errs.Store("Server error", err)
	}

	s.announceAccount(ctx, account)
	return account, nil
}

// UpdateAccount replaces the provided balances.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.Account, error) {
	account, err := s.loadMutable(ctx, cmd.AccountID, "Account is not active, cannot update")
	if err != nil {
		return nil, err
	}

	if cmd.Cash != nil {
		account.Cash = *cmd.Cash
	}
	if cmd.Credit != nil {
		if *cmd.Credit < 0 {
			return nil, errs.Validation("Invalid update request: credit cannot be negative")
		}
		account.Credit = *cmd.Credit
	}
	if err := s.checkCash(account.Cash); err != nil {
		return nil, err
	}

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, lookupError(err, "Account not found")
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: account.ID,
		Owner:     account.Owner,
		Cash:      account.Cash,
		Credit:    account.Credit,
	})
	return account, nil
}

// DeleteAccount unlinks the account from its owner, deletes it and returns the deleted snapshot.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, cmd.AccountID)
	if err != nil {
		return nil, lookupError(err, "Account not found")
	}

	owner, err := s.store.GetUser(ctx, account.Owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.Integrity("Account owner no longer exists")
	}
	if err != nil {
		return nil, errs.Store("Server error", err)
	}
	original := owner.Clone()
	if !owner.RemoveAccount(account.ID) {
		return nil, errs.Integrity("Account is missing from its owner's accounts")
	}

	if err := s.store.UpdateUser(ctx, owner); err != nil {
		return nil, errs.Store("Server error", err)
	}
	if err := s.store.DeleteAccount(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.NotFound("Account not found")
		}
		if cerr := s.store.UpdateUser(ctx, original); cerr != nil {
			slog.Error("failed to restore owner accounts", "user", original.ID, "account", account.ID, "error", cerr)
			s.announceAccount(ctx, account)
			return nil, errs.Wrap(errs.ErrIntegrity, "Account unlinked but not deleted", errors.Join(err, cerr))
		}
		return nil, errs.Store("Server error", err)
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID: account.ID,
		Owner:     account.Owner,
	})
	return account, nil
}

// AdjustAccount adds the provided deltas to the current balances.
func (s *AccountCommandService) AdjustAccount(ctx context.Context, cmd cqrs.AdjustAccountCommand) (*models.Account, error) {
	account, err := s.loadMutable(ctx, cmd.AccountID, "User is inactive")
	if err != nil {
		return nil, err
	}

	cashChange, creditChange := deref(cmd.Cash), deref(cmd.Credit)
	if account.Credit+creditChange < 0 {
		return nil, errs.CreditLimitExceeded("Credit limit exceeded")
	}
	if err := s.checkCash(account.Cash + cashChange); err != nil {
		return nil, err
	}
	account.Cash += cashChange
	account.Credit += creditChange

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, lookupError(err, "Account not found")
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:    account.ID,
		Cash:         account.Cash,
		Credit:       account.Credit,
		CashChange:   cashChange,
		CreditChange: creditChange,
	})
	return account, nil
}

// Transfer moves cash and/or credit from one account to another and returns both accounts.
func (s *AccountCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Account, *models.Account, error) {
	cash, credit := deref(cmd.Cash), deref(cmd.Credit)
	if cmd.FromAccountID == "" || cmd.ToAccountID == "" || (cash == 0 && credit == 0) {
		return nil, nil, errs.Validation("Invalid transfer request")
	}
	if cash < 0 {
		return nil, nil, errs.Validation("Invalid cash transfer request")
	}
	if credit < 0 {
		return nil, nil, errs.Validation("Invalid credit transfer request")
	}
	if cmd.FromAccountID == cmd.ToAccountID {
		return nil, nil, errs.Validation("Cannot transfer to the same account")
	}

	from, err := s.store.GetAccount(ctx, cmd.FromAccountID)
	if err != nil {
		return nil, nil, lookupError(err, "Couldn't find account")
	}
	to, err := s.store.GetAccount(ctx, cmd.ToAccountID)
	if err != nil {
		return nil, nil, lookupError(err, "Couldn't find account")
	}

	sender, err := s.store.GetUser(ctx, from.Owner)
	if err != nil {
		return nil, nil, lookupError(err, "Owner not found")
	}
	if credit > from.Credit {
		return nil, nil, errs.CreditLimitExceeded("Invalid credit request")
	}
	if !sender.IsActive {
		return nil, nil, errs.InactiveOwner("User is inactive cannot send money")
	}
	if err := s.checkCash(from.Cash - cash); err != nil {
		return nil, nil, err
	}

	original := *from
	from.Cash -= cash
	from.Credit -= credit
	to.Cash += cash
	to.Credit += credit

	if err := s.store.UpdateAccount(ctx, from); err != nil {
		return nil, nil, lookupError(err, "Couldn't find account")
	}
	if err := s.store.UpdateAccount(ctx, to); err != nil {
		if cerr := s.store.UpdateAccount(ctx, &original); cerr != nil {
			slog.Error("failed to restore transfer source", "account", original.ID, "error", cerr)
			return nil, nil, errs.Wrap(errs.ErrIntegrity, "Transfer debited but not credited", errors.Join(err, cerr))
		}
		return nil, nil, lookupError(err, "Couldn't find account")
	}

	publish(ctx, s.publisher, events.AccountEventsStream, events.TransferCompleted, events.TransferCompletedEvent{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Cash:          cash,
		Credit:        credit,
	})
	return from, to, nil
}

// announceAccount publishes account.created. It also runs when a compensating write
// fails and the account exists without its owner reference, so the account.events
// consumer relinks it.
func (s *AccountCommandService) announceAccount(ctx context.Context, account *models.Account) {
	publish(ctx, s.publisher, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: account.ID,
		Owner:     account.Owner,
		Cash:      account.Cash,
		Credit:    account.Credit,
	})
}

// loadMutable fetches an account whose owner exists and is active.
func (s *AccountCommandService) loadMutable(ctx context.Context, id, inactiveMsg string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Account not found")
	}
	owner, err := s.store.GetUser(ctx, account.Owner)
	if err != nil {
		return nil, lookupError(err, "Owner not found")
	}
	if !owner.IsActive {
		return nil, errs.InactiveOwner(inactiveMsg)
	}
	return account, nil
}

func (s *AccountCommandService) checkCash(cash float64) error {
	if s.cashFloor && cash < 0 {
		return errs.New(errs.ErrInsufficientCash, "Insufficient cash")
	}
	return nil
}
