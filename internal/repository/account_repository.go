package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eaglebank/bank-api/shared/models"
	"github.com/eaglebank/bank-api/shared/utils"
)

// AccountRepository persists accounts in PostgreSQL.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, owner, cash, credit, created_at, updated_at`

func (r *AccountRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	a.ID = utils.GenerateID(utils.AccountIDPrefix)
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Owner, a.Cash, a.Credit, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindAccounts(ctx context.Context, filter AccountFilter) ([]models.Account, error) {
	where, args := accountWhere(filter)
	query := `SELECT ` + accountColumns + ` FROM accounts` + where + ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// accountWhere renders filter as a WHERE clause with positional arguments.
func accountWhere(filter AccountFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Owner != "" {
		add("owner = $%d", filter.Owner)
	}
	if t := filter.Threshold; t != nil {
		op := ">"
		if t.Direction == models.LessThan {
			op = "<"
		}
		if t.Cash != nil {
			add("cash "+op+" $%d", *t.Cash)
		}
		if t.Credit != nil {
			add("credit "+op+" $%d", *t.Credit)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *AccountRepository) UpdateAccount(ctx context.Context, a *models.Account) error {
	a.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE accounts
		SET cash = $2, credit = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, a.ID, a.Cash, a.Credit, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return expectOneRow(result)
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOneRow(result)
}

func (r *AccountRepository) DeleteAccountsByOwner(ctx context.Context, owner string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE owner = $1`, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts of %s: %w", owner, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return n, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Owner, &a.Cash, &a.Credit, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
