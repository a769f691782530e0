package query

import (
	"context"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/cqrs"
	"github.com/eaglebank/bank-api/shared/errs"
	"github.com/eaglebank/bank-api/shared/models"
)

type UserQueryService struct {
	store repository.UserStore
}

func NewUserQueryService(store repository.UserStore) *UserQueryService {
	return &UserQueryService{store: store}
}

// ListUsers returns every user, or only active or inactive ones when q.IsActive is set.
func (s *UserQueryService) ListUsers(ctx context.Context, q cqrs.ListUsersQuery) ([]models.User, error) {
	users, err := s.store.FindUsers(ctx, repository.UserFilter{IsActive: q.IsActive})
	if err != nil {
		return nil, errs.Store("Server error", err)
	}
	return users, nil
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	user, err := s.store.GetUser(ctx, q.UserID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	return user, nil
}
