package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/models"
)

const userColumns = `id, name, email, password_hash, phone, address, role, status, balance_micros, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.Role, &u.Status, &u.BalanceMicros, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, phone, address, role, status, balance_micros, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Phone, user.Address, user.Role, user.Status, user.BalanceMicros,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

// GetUserForUpdate loads a user row under a row lock. Callers must be inside
// a transaction; the lock holds until commit or rollback.
func (q *Queries) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListPartners(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'partner' ORDER BY name ASC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var partners []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, *u)
	}
	return partners, rows.Err()
}

func (q *Queries) UpdateUserStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("update user status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, phone string, address models.Address) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET name = $1, phone = $2, address = $3 WHERE id = $4`, name, phone, address, id)
	if err != nil {
		return 0, fmt.Errorf("update user profile: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AdjustBalance applies a signed delta to a wallet balance. The caller is
// responsible for holding the row lock and for any floor checks.
func (q *Queries) AdjustBalance(ctx context.Context, id uuid.UUID, deltaMicros int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET balance_micros = balance_micros + $1 WHERE id = $2`, deltaMicros, id)
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	return tag.RowsAffected(), nil
}
