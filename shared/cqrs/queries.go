package cqrs

import "github.com/eaglebank/bank-api/shared/models"

// ---------- User queries ----------

// ListUsersQuery lists users; a nil IsActive returns everyone.
type ListUsersQuery struct {
	IsActive *bool
}

type GetUserQuery struct {
	UserID string
}

// ---------- Account queries ----------

type ListAccountsQuery struct {
	Owner string
}

type GetAccountQuery struct {
	AccountID string
}

// ThresholdQuery filters accounts by cash and/or credit; both set means both must hold.
type ThresholdQuery struct {
	Direction models.Direction
	Cash      *float64
	Credit    *float64
}
