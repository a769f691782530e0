package query

import (
	"context"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/models"
)

type AccountQueryService struct {
	store repository.AccountStore
}

func NewAccountQueryService(store repository.AccountStore) *AccountQueryService {
	return &AccountQueryService{store: store}
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.Account, error) {
	accounts, err := s.store.FindAccounts(ctx, repository.AccountFilter{Owner: q.Owner})
	if err != nil {
		return nil, errs.Store("Couldn't get accounts", err)
	}
	return accounts, nil
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, q.AccountID)
	if err != nil {
		return nil, lookupError(err, "Account not found")
	}
	return account, nil
}

// Threshold returns the accounts whose cash and/or credit lie strictly beyond the given limits.
func (s *AccountQueryService) Threshold(ctx context.Context, q cqrs.ThresholdQuery) ([]models.Account, error) {
	if !q.Direction.Valid() {
		return nil, errs.Validation("Invalid threshold direction")
	}
	if q.Cash == nil && q.Credit == nil {
		return nil, errs.Validation("Invalid query parameters")
	}
	accounts, err := s.store.FindAccounts(ctx, repository.AccountFilter{
		Threshold: &repository.Threshold{Direction: q.Direction, Cash: q.Cash, Credit: q.Credit},
	})
	if err != nil {
		return nil, errs.Store("Couldn't get accounts", err)
	}
	return accounts, nil
}
