package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/models"
)

const orderColumns = `id, mcp_id, partner_id, amount_micros, type, description, status, created_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.MCPID, &o.PartnerID, &o.AmountMicros, &o.Type, &o.Description, &o.Status, &o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (q *Queries) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `INSERT INTO orders (id, mcp_id, partner_id, amount_micros, type, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, o.ID, o.MCPID, o.PartnerID, o.AmountMicros, o.Type, o.Description, o.Status).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(q.db.QueryRow(ctx, query, id))
}

// GetOrderForUpdate loads an order row under a row lock so a status
// transition observes the latest committed state.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(q.db.QueryRow(ctx, query, id))
}

// listOrders joins the counterparty summary the dashboards render.
func (q *Queries) listOrders(ctx context.Context, ownerColumn, joinColumn string, ownerID uuid.UUID) ([]models.Order, error) {
	query := fmt.Sprintf(`
		SELECT o.id, o.mcp_id, o.partner_id, o.amount_micros, o.type, o.description, o.status, o.created_at, o.completed_at,
			u.id, u.name, u.email, u.phone
		FROM orders o
		JOIN users u ON u.id = o.%s
		WHERE o.%s = $1
		ORDER BY o.created_at DESC, o.id DESC`, joinColumn, ownerColumn)
	rows, err := q.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var p models.Party
		if err := rows.Scan(&o.ID, &o.MCPID, &o.PartnerID, &o.AmountMicros, &o.Type, &o.Description, &o.Status, &o.CreatedAt, &o.CompletedAt,
			&p.ID, &p.Name, &p.Email, &p.Phone); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if joinColumn == "partner_id" {
			o.Partner = &p
		} else {
			o.MCP = &p
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrdersForMCP(ctx context.Context, mcpID uuid.UUID) ([]models.Order, error) {
	return q.listOrders(ctx, "mcp_id", "partner_id", mcpID)
}

func (q *Queries) ListOrdersForPartner(ctx context.Context, partnerID uuid.UUID) ([]models.Order, error) {
	return q.listOrders(ctx, "partner_id", "mcp_id", partnerID)
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CompleteOrder flips the order terminal and stamps completion time.
func (q *Queries) CompleteOrder(ctx context.Context, id uuid.UUID, completedAt time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE orders SET status = $1, completed_at = $2 WHERE id = $3`,
		"completed", completedAt, id)
	if err != nil {
		return 0, fmt.Errorf("complete order: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AssignOrder re-points the order at a partner and marks it assigned.
func (q *Queries) AssignOrder(ctx context.Context, id, partnerID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE orders SET partner_id = $1, status = 'assigned' WHERE id = $2`, partnerID, id)
	if err != nil {
		return 0, fmt.Errorf("assign order: %w", err)
	}
	return tag.RowsAffected(), nil
}
