package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
)

type UserCommandService struct {
	store     repository.Store
	publisher events.Emitter
}

func NewUserCommandService(store repository.Store, publisher events.Emitter) *UserCommandService {
	return &UserCommandService{
		store:     store,
		publisher: publisher,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.User, error) {
	if cmd.Name == "" || cmd.Email == "" {
		return nil, errs.Validation("All fields are required")
	}
	user := &models.User{
		Name:     cmd.Name,
		Email:    cmd.Email,
		IsActive: true,
		Accounts: []string{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, errs.Store("Server error", err)
	}

	publish(ctx, s.publisher, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// UpdateUser applies only the provided fields. A replaced accounts list is stored as given.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.User, error) {
	user, err := s.store.GetUser(ctx, cmd.UserID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}

	if cmd.Name != nil {
		if *cmd.Name == "" {
			return nil, errs.Validation("name cannot be empty")
		}
		user.Name = *cmd.Name
	}
	if cmd.Email != nil {
		if *cmd.Email == "" {
			return nil, errs.Validation("email cannot be empty")
		}
		user.Email = *cmd.Email
	}
	if cmd.IsActive != nil {
		user.IsActive = *cmd.IsActive
	}
	if cmd.Accounts != nil {
		user.Accounts = slices.Clone(*cmd.Accounts)
		if user.Accounts == nil {
			user.Accounts = []string{}
		}
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, lookupError(err, "User not found")
	}

	publish(ctx, s.publisher, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		IsActive: user.IsActive,
	})
	return user, nil
}

// DeleteUser removes every account the user owns, then the user, and returns the deleted snapshot.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) (*models.User, error) {
	user, err := s.store.GetUser(ctx, cmd.UserID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}

	deleted, err := s.store.DeleteAccountsByOwner(ctx, user.ID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCascadeFailure, "Couldn't delete user accounts", err)
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return nil, lookupError(err, "User not found")
	}

	publish(ctx, s.publisher, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID:          user.ID,
		DeletedAccounts: deleted,
	})
	return user, nil
}

// HandleAccountEvent repairs the owner's accounts list after account.created and
// account.deleted events. The account store is consulted before every change so
// replayed or reordered events leave the list matching the accounts that exist.
func (s *UserCommandService) HandleAccountEvent(ctx context.Context, event events.Event) error {
	var accountID, ownerID string
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		accountID, ownerID = data.AccountID, data.Owner
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := event.Decode(&data); err != nil {
			return err
		}
		accountID, ownerID = data.AccountID, data.Owner
	default:
		return nil
	}

	owner, err := s.store.GetUser(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Debug("skipping account event for missing owner", "type", event.Type, "user", ownerID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load owner %s: %w", ownerID, err)
	}

	account, err := s.store.GetAccount(ctx, accountID)
	exists := err == nil && account.Owner == owner.ID
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to load account %s: %w", accountID, err)
	}

	var changed bool
	if exists {
		changed = owner.AddAccount(accountID)
	} else {
		changed = owner.RemoveAccount(accountID)
	}
	if !changed {
		return nil
	}

	if err := s.store.UpdateUser(ctx, owner); err != nil {
		return fmt.Errorf("failed to reconcile accounts of %s: %w", owner.ID, err)
	}
	slog.Info("reconciled owner accounts", "user", owner.ID, "account", accountID, "linked", exists)
	return nil
}
