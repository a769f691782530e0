package cqrs

// Pointer fields distinguish "not provided" from a zero value.

type CreateUserCommand struct {
	Name  string
	Email string
}

type UpdateUserCommand struct {
	UserID   string
	Name     *string
	Email    *string
	IsActive *bool
	Accounts *[]string
}

type DeleteUserCommand struct {
	UserID string
}

type CreateAccountCommand struct {
	Owner  string
	Cash   *float64
	Credit *float64
}

// UpdateAccountCommand replaces balances absolutely.
type UpdateAccountCommand struct {
	AccountID string
	Cash      *float64
	Credit    *float64
}

// AdjustAccountCommand adds deltas to the current balances.
type AdjustAccountCommand struct {
	AccountID string
	Cash      *float64
	Credit    *float64
}

type DeleteAccountCommand struct {
	AccountID string
}

type TransferCommand struct {
	FromAccountID string
	ToAccountID   string
	Cash          *float64
	Credit        *float64
}
