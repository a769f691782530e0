package models

import (
	"slices"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	Accounts  []string  `json:"accounts"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

// OwnsAccount reports whether accountID is in the user's back-reference list.
func (u *User) OwnsAccount(accountID string) bool {
	return slices.Contains(u.Accounts, accountID)
}

// AddAccount appends accountID unless it is already present.
func (u *User) AddAccount(accountID string) bool {
	if u.OwnsAccount(accountID) {
		return false
	}
	u.Accounts = append(u.Accounts, accountID)
	return true
}

// RemoveAccount drops accountID from the back-reference list.
func (u *User) RemoveAccount(accountID string) bool {
	i := slices.Index(u.Accounts, accountID)
	if i < 0 {
		return false
	}
	u.Accounts = slices.Delete(u.Accounts, i, i+1)
	return true
}

// Clone returns a deep copy so callers can mutate the accounts slice freely.
func (u *User) Clone() *User {
	cp := *u
	cp.Accounts = slices.Clone(u.Accounts)
	if cp.Accounts == nil {
		cp.Accounts = []string{}
	}
	return &cp
}

type Account struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Cash      float64   `json:"cash"`
	Credit    float64   `json:"credit"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

// Direction selects the comparison used by threshold queries.
type Direction string

const (
	GreaterThan Direction = "greaterThan"
	LessThan    Direction = "lessThan"
)

func (d Direction) Valid() bool {
	return d == GreaterThan || d == LessThan
}

// Matches reports whether value is strictly beyond limit in direction d.
func (d Direction) Matches(value, limit float64) bool {
	if d == GreaterThan {
		return value > limit
	}
	return value < limit
}
