package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"

	AccountCreated    = "account.created"
	AccountUpdated    = "account.updated"
	AccountDeleted    = "account.deleted"
	BalanceUpdated    = "balance.updated"
	TransferCompleted = "transfer.completed"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	AccountEventsStream = "account.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-marshals the generic payload into a typed event struct.
func (e Event) Decode(into any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// User events
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserUpdatedEvent struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type UserDeletedEvent struct {
	UserID          string `json:"userId"`
	DeletedAccounts int64  `json:"deletedAccounts"`
}

// Account events
type AccountCreatedEvent struct {
	AccountID string  `json:"accountId"`
	Owner     string  `json:"owner"`
	Cash      float64 `json:"cash"`
	Credit    float64 `json:"credit"`
}

type AccountUpdatedEvent struct {
	AccountID string  `json:"accountId"`
	Owner     string  `json:"owner"`
	Cash      float64 `json:"cash"`
	Credit    float64 `json:"credit"`
}

type AccountDeletedEvent struct {
	AccountID string `json:"accountId"`
	Owner     string `json:"owner"`
}

type BalanceUpdatedEvent struct {
	AccountID    string  `json:"accountId"`
	Cash         float64 `json:"cash"`
	Credit       float64 `json:"credit"`
	CashChange   float64 `json:"cashChange"`
	CreditChange float64 `json:"creditChange"`
}

type TransferCompletedEvent struct {
	FromAccountID string  `json:"fromAccountId"`
	ToAccountID   string  `json:"toAccountId"`
	Cash          float64 `json:"cash"`
	Credit        float64 `json:"credit"`
}
