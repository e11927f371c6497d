package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/models"
)

func (q *Queries) InsertWalletEntry(ctx context.Context, e *models.WalletEntry) error {
	query := `INSERT INTO wallet_entries (id, user_id, direction, amount_micros, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, e.ID, e.UserID, e.Direction, e.AmountMicros, e.Description).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet entry: %w", err)
	}
	return nil
}

// ListWalletEntries returns a wallet's entries in append order.
func (q *Queries) ListWalletEntries(ctx context.Context, userID uuid.UUID) ([]models.WalletEntry, error) {
	query := `SELECT id, user_id, direction, amount_micros, description, created_at
		FROM wallet_entries
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallet entries: %w", err)
	}
	defer rows.Close()

	var entries []models.WalletEntry
	for rows.Next() {
		var e models.WalletEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Direction, &e.AmountMicros, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetWalletSnapshot loads a wallet owner together with its full entry history
// in one statement, so the balance and the entries come from the same
// read snapshot. Entries are in append order. Returns pgx.ErrNoRows when the
// user does not exist.
func (q *Queries) GetWalletSnapshot(ctx context.Context, userID uuid.UUID) (*models.User, []models.WalletEntry, error) {
	query := `SELECT u.id, u.name, u.email, u.password_hash, u.phone, u.address, u.role, u.status, u.balance_micros, u.created_at,
			e.id, e.direction, e.amount_micros, e.description, e.created_at
		FROM users u
		LEFT JOIN wallet_entries e ON e.user_id = u.id
		WHERE u.id = $1
		ORDER BY e.created_at ASC, e.id ASC`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet snapshot: %w", err)
	}
	defer rows.Close()

	var user *models.User
	var entries []models.WalletEntry
	for rows.Next() {
		u := &models.User{}
		var (
			entryID   *uuid.UUID
			direction *string
			amount    *int64
			desc      *string
			createdAt *time.Time
		)
		err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.Role, &u.Status, &u.BalanceMicros, &u.CreatedAt,
			&entryID, &direction, &amount, &desc, &createdAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan wallet snapshot: %w", err)
		}
		if user == nil {
			user = u
		}
		if entryID != nil {
			entries = append(entries, models.WalletEntry{
				ID:           *entryID,
				UserID:       u.ID,
				Direction:    *direction,
				AmountMicros: *amount,
				Description:  *desc,
				CreatedAt:    *createdAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("wallet snapshot: %w", err)
	}
	if user == nil {
		return nil, nil, pgx.ErrNoRows
	}
	return user, entries, nil
}

// WalletImbalance reports a wallet whose balance diverged from the signed sum
// of its ledger entries.
type WalletImbalance struct {
	UserID        uuid.UUID
	BalanceMicros int64
	EntryNet      int64
}

// WalletImbalances returns every wallet where balance != sum of signed entries.
func (q *Queries) WalletImbalances(ctx context.Context) ([]WalletImbalance, error) {
	query := `
		SELECT u.id, u.balance_micros,
			COALESCE(SUM(CASE WHEN e.direction = 'credit' THEN e.amount_micros ELSE -e.amount_micros END), 0) AS entry_net
		FROM users u
		LEFT JOIN wallet_entries e ON e.user_id = u.id
		GROUP BY u.id, u.balance_micros
		HAVING u.balance_micros <> COALESCE(SUM(CASE WHEN e.direction = 'credit' THEN e.amount_micros ELSE -e.amount_micros END), 0)`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("wallet imbalances: %w", err)
	}
	defer rows.Close()

	var out []WalletImbalance
	for rows.Next() {
		var im WalletImbalance
		if err := rows.Scan(&im.UserID, &im.BalanceMicros, &im.EntryNet); err != nil {
			return nil, fmt.Errorf("scan wallet imbalance: %w", err)
		}
		out = append(out, im)
	}
	return out, rows.Err()
}
