package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/observability"
	"github.com/mcpops/portal/internal/repository"
	"go.uber.org/zap"
)

// OrderService drives the order lifecycle, including settlement on
// completion.
type OrderService struct {
	store QueryStore
}

func NewOrderService(store QueryStore) *OrderService {
	return &OrderService{store: store}
}

// Create opens a new pending order between the calling MCP and a partner.
// The partner must exist, hold the partner role, and be active.
func (s *OrderService) Create(ctx context.Context, mcpID, partnerID uuid.UUID, amountMicros int64, orderType, description string) (*models.Order, error) {
	if amountMicros <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrValidation)
	}
	if !domain.ValidOrderType(orderType) {
		return nil, fmt.Errorf("invalid order type %q: %w", orderType, models.ErrValidation)
	}

	queries := s.store.Queries()
	partner, err := queries.GetUser(ctx, partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("partner %s: %w", partnerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load partner: %w", err)
	}
	if partner.Role != domain.RolePartner || partner.Status != domain.AccountStatusActive {
		return nil, fmt.Errorf("partner %s not found or inactive: %w", partnerID, models.ErrNotFound)
	}

	order := &models.Order{
		ID:           uuid.New(),
		MCPID:        mcpID,
		PartnerID:    partnerID,
		AmountMicros: amountMicros,
		Type:         orderType,
		Description:  description,
		Status:       domain.OrderStatusPending,
	}
	if err := queries.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListForMCP(ctx context.Context, mcpID uuid.UUID) ([]models.Order, error) {
	return s.store.Queries().ListOrdersForMCP(ctx, mcpID)
}

func (s *OrderService) ListForPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Order, error) {
	return s.store.Queries().ListOrdersForPartner(ctx, partnerID)
}

// GetByID returns an order, restricted to its two parties.
func (s *OrderService) GetByID(ctx context.Context, orderID, callerID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Queries().GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.MCPID != callerID && order.PartnerID != callerID {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// UpdateStatus transitions an order through the lifecycle table. A transition
// to completed settles the order: both wallet updates, both ledger entries,
// and the status flip commit or roll back together.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, callerID uuid.UUID, next string) (*models.Order, error) {
	next = normalizeStatus(next)
	if !knownStatus(next) {
		return nil, fmt.Errorf("unknown status %q: %w", next, models.ErrValidation)
	}

	var updated *models.Order
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		order, err := q.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if order.MCPID != callerID && order.PartnerID != callerID {
			return models.ErrForbidden
		}
		if !canTransition(order.Status, next) {
			return fmt.Errorf("cannot move order from %s to %s: %w", order.Status, next, models.ErrInvalidState)
		}

		if next == domain.OrderStatusCompleted {
			if err := settleOrder(ctx, q, order); err != nil {
				return err
			}
		} else {
			rows, err := q.UpdateOrderStatus(ctx, orderID, next)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "update order status"); err != nil {
				return err
			}
			order.Status = next
		}

		updated = order
		return nil
	})
	if err != nil {
		if next == domain.OrderStatusCompleted {
			result := "failed"
			if errors.Is(err, models.ErrInvalidState) || errors.Is(err, models.ErrForbidden) {
				result = "rejected"
			}
			observability.IncrementSettlement(result)
		}
		return nil, err
	}

	if next == domain.OrderStatusCompleted {
		observability.IncrementSettlement("success")
		zap.L().Info("order settled",
			zap.String("order_id", orderID.String()),
			zap.String("mcp_id", updated.MCPID.String()),
			zap.String("partner_id", updated.PartnerID.String()),
			zap.Int64("amount_micros", updated.AmountMicros),
		)
	}
	return updated, nil
}

// Assign re-points an order at a different partner and moves it to assigned.
// Only the order's MCP may assign, and only from a state the transition table
// allows.
func (s *OrderService) Assign(ctx context.Context, orderID, callerID, partnerID uuid.UUID) (*models.Order, error) {
	var updated *models.Order
	err := s.store.RunInTx(ctx, func(q *repository.Queries) error {
		order, err := q.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if order.MCPID != callerID {
			return models.ErrForbidden
		}
		if !canTransition(order.Status, domain.OrderStatusAssigned) {
			return fmt.Errorf("cannot assign order in status %s: %w", order.Status, models.ErrInvalidState)
		}

		partner, err := q.GetUser(ctx, partnerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("partner %s: %w", partnerID, models.ErrNotFound)
			}
			return fmt.Errorf("load partner: %w", err)
		}
		if partner.Role != domain.RolePartner || partner.Status != domain.AccountStatusActive {
			return fmt.Errorf("partner %s not found or inactive: %w", partnerID, models.ErrNotFound)
		}

		rows, err := q.AssignOrder(ctx, orderID, partnerID)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "assign order"); err != nil {
			return err
		}

		order.PartnerID = partnerID
		order.Status = domain.OrderStatusAssigned
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
