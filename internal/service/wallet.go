package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/repository"
)

// WalletService implements the wallet primitives: balance reads, top-ups,
// withdrawals, and MCP-to-partner transfers.
type WalletService struct {
	store QueryStore
}

func NewWalletService(store QueryStore) *WalletService {
	return &WalletService{store: store}
}

// GetWallet returns the current balance and the full entry history in append
// order. Both come out of one statement so the pair is always a consistent
// snapshot, even under concurrent writes.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.User, []models.WalletEntry, error) {
	user, entries, err := s.store.Queries().GetWalletSnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("load wallet: %w", err)
	}
	return user, entries, nil
}

// AddFunds credits the caller's own wallet. Amount must be positive; there is
// no upper bound.
func (s *WalletService) AddFunds(ctx context.Context, userID uuid.UUID, amountMicros int64, description string) error {
	if amountMicros <= 0 {
		return fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}
	if description == "" {
		description = "Wallet top-up"
	}

	return s.store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := q.GetUserForUpdate(ctx, userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
			}
			return fmt.Errorf("lock account: %w", err)
		}
		rows, err := q.AdjustBalance(ctx, userID, amountMicros)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit balance"); err != nil {
			return err
		}
		return q.InsertWalletEntry(ctx, &models.WalletEntry{
			ID:           uuid.New(),
			UserID:       userID,
			Direction:    domain.DirectionCredit,
			AmountMicros: amountMicros,
			Description:  description,
		})
	})
}

// Withdraw debits the caller's own wallet. Unlike settlement debits, a
// withdrawal may never drive the balance negative.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amountMicros int64, description string) error {
	if amountMicros <= 0 {
		return fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}
	if description == "" {
		description = "Wallet withdrawal"
	}

	return s.store.RunInTx(ctx, func(q *repository.Queries) error {
		user, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("account %s: %w", userID, models.ErrNotFound)
			}
			return fmt.Errorf("lock account: %w", err)
		}
		if user.BalanceMicros < amountMicros {
			return models.ErrInsufficientFunds
		}
		rows, err := q.AdjustBalance(ctx, userID, -amountMicros)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "debit balance"); err != nil {
			return err
		}
		return q.InsertWalletEntry(ctx, &models.WalletEntry{
			ID:           uuid.New(),
			UserID:       userID,
			Direction:    domain.DirectionDebit,
			AmountMicros: amountMicros,
			Description:  description,
		})
	})
}

// Transfer moves funds from an MCP wallet to a partner wallet as one
// transaction: two balance updates plus the matching debit/credit entries.
func (s *WalletService) Transfer(ctx context.Context, callerID, partnerID uuid.UUID, amountMicros int64, description string) error {
	if amountMicros <= 0 {
		return fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}
	if callerID == partnerID {
		return fmt.Errorf("cannot transfer to the same account: %w", models.ErrValidation)
	}

	return s.store.RunInTx(ctx, func(q *repository.Queries) error {
		// Lock both accounts in ascending ID order to prevent deadlocks
		// between opposing concurrent transfers.
		first, second := callerID, partnerID
		if first.String() > second.String() {
			first, second = second, first
		}

		locked := make(map[uuid.UUID]*models.User, 2)
		for _, id := range []uuid.UUID{first, second} {
			user, err := q.GetUserForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("account %s: %w", id, models.ErrNotFound)
				}
				return fmt.Errorf("lock account %s: %w", id, err)
			}
			locked[id] = user
		}

		mcp, partner := locked[callerID], locked[partnerID]
		if mcp.Role != domain.RoleMCP {
			return fmt.Errorf("only mcp accounts can transfer funds: %w", models.ErrForbidden)
		}
		if partner.Role != domain.RolePartner {
			return fmt.Errorf("partner %s: %w", partnerID, models.ErrNotFound)
		}
		if mcp.BalanceMicros < amountMicros {
			return models.ErrInsufficientFunds
		}

		if rows, err := q.AdjustBalance(ctx, callerID, -amountMicros); err != nil {
			return err
		} else if err := requireExactlyOne(rows, "debit sender"); err != nil {
			return err
		}
		if rows, err := q.AdjustBalance(ctx, partnerID, amountMicros); err != nil {
			return err
		} else if err := requireExactlyOne(rows, "credit receiver"); err != nil {
			return err
		}

		if err := q.InsertWalletEntry(ctx, &models.WalletEntry{
			ID:           uuid.New(),
			UserID:       callerID,
			Direction:    domain.DirectionDebit,
			AmountMicros: amountMicros,
			Description:  fmt.Sprintf("Transfer to %s: %s", partner.Name, description),
		}); err != nil {
			return err
		}
		return q.InsertWalletEntry(ctx, &models.WalletEntry{
			ID:           uuid.New(),
			UserID:       partnerID,
			Direction:    domain.DirectionCredit,
			AmountMicros: amountMicros,
			Description:  fmt.Sprintf("Transfer from %s: %s", mcp.Name, description),
		})
	})
}
