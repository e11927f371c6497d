package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/repository"
)

// settleOrder applies the economic effect of a completed order inside the
// caller's transaction: debit the MCP, credit the partner, append the matching
// ledger entries, and stamp the order completed. The caller has already locked
// the order row and verified the transition, so a concurrent settlement
// attempt on the same order fails the transition check instead of
// double-crediting.
//
// The MCP debit intentionally has no floor: settlement proceeds even when it
// drives the MCP wallet negative.
func settleOrder(ctx context.Context, q *repository.Queries, order *models.Order) error {
	// Lock both wallets in ascending ID order, same discipline as transfers.
	first, second := order.MCPID, order.PartnerID
	if first.String() > second.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		if _, err := q.GetUserForUpdate(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("account %s: %w", id, models.ErrNotFound)
			}
			return fmt.Errorf("lock account %s: %w", id, err)
		}
	}

	if rows, err := q.AdjustBalance(ctx, order.MCPID, -order.AmountMicros); err != nil {
		return err
	} else if err := requireExactlyOne(rows, "debit mcp wallet"); err != nil {
		return err
	}
	if rows, err := q.AdjustBalance(ctx, order.PartnerID, order.AmountMicros); err != nil {
		return err
	} else if err := requireExactlyOne(rows, "credit partner wallet"); err != nil {
		return err
	}

	description := fmt.Sprintf("Order completion: %s", order.Description)
	if err := q.InsertWalletEntry(ctx, &models.WalletEntry{
		ID:           uuid.New(),
		UserID:       order.MCPID,
		Direction:    domain.DirectionDebit,
		AmountMicros: order.AmountMicros,
		Description:  description,
	}); err != nil {
		return err
	}
	if err := q.InsertWalletEntry(ctx, &models.WalletEntry{
		ID:           uuid.New(),
		UserID:       order.PartnerID,
		Direction:    domain.DirectionCredit,
		AmountMicros: order.AmountMicros,
		Description:  description,
	}); err != nil {
		return err
	}

	completedAt := time.Now().UTC()
	rows, err := q.CompleteOrder(ctx, order.ID, completedAt)
	if err != nil {
		return err
	}
	if err := requireExactlyOne(rows, "complete order"); err != nil {
		return err
	}

	order.Status = domain.OrderStatusCompleted
	order.CompletedAt = &completedAt
	return nil
}
