package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/eaglebank/bank-api/shared/models"
	"github.com/eaglebank/bank-api/shared/utils"
)

// UserRepository persists users in PostgreSQL. The accounts back-reference is a TEXT[] column.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, is_active, accounts, created_at, updated_at`

func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = utils.GenerateID(utils.UserIDPrefix)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	if u.Accounts == nil {
		u.Accounts = []string{}
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.IsActive, pq.Array(u.Accounts), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.IsActive != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *filter.IsActive)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	if u.Accounts == nil {
		u.Accounts = []string{}
	}
	query := `
		UPDATE users
		SET name = $2, email = $3, is_active = $4, accounts = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.IsActive, pq.Array(u.Accounts), u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(result)
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var accounts pq.StringArray
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &accounts, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Accounts = []string(accounts)
	if u.Accounts == nil {
		u.Accounts = []string{}
	}
	return &u, nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
