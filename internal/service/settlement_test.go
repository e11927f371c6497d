package service

import (
	"context"
	"sync"
	"testing"

	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLifecycleWithSettlement(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 60_000_000, domain.OrderTypeCredit, "install job")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Nil(t, order.CompletedAt)

	// pending -> in_progress by the partner.
	order, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, order.Status)

	// in_progress -> completed settles the order.
	order, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)

	assert.Equal(t, int64(40_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(60_000_000), balanceOf(t, pool, partner.ID))
	assert.Equal(t, 1, entryCount(t, pool, mcp.ID))
	assert.Equal(t, 1, entryCount(t, pool, partner.ID))
}

func TestSettlementAllowsNegativeMCPBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 10_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 50_000_000, domain.OrderTypeCredit, "big job")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, mcp.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, mcp.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	// Settlement debits unconditionally; the MCP wallet may go negative.
	assert.Equal(t, int64(-40_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(50_000_000), balanceOf(t, pool, partner.ID))
}

func TestInvalidTransitionsRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 60_000_000, domain.OrderTypeCredit, "job")
	require.NoError(t, err)

	// pending -> completed skips in_progress.
	_, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusCompleted)
	require.ErrorIs(t, err, models.ErrInvalidState)

	// Unknown status string.
	_, err = svc.UpdateStatus(ctx, order.ID, partner.ID, "shipped")
	require.ErrorIs(t, err, models.ErrValidation)

	// Terminal states have no exits.
	_, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusInProgress)
	require.ErrorIs(t, err, models.ErrInvalidState)

	// Rejected transitions never move money.
	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(0), balanceOf(t, pool, partner.ID))
}

func TestNonPartyCannotTouchOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)
	outsider := createTestUser(t, store, "sola", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 60_000_000, domain.OrderTypeCredit, "job")
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, order.ID, outsider.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.UpdateStatus(ctx, order.ID, outsider.ID, domain.OrderStatusInProgress)
	require.ErrorIs(t, err, models.ErrForbidden)

	// Still pending, no money moved.
	got, err := svc.GetByID(ctx, order.ID, mcp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, mcp.ID))
}

func TestConcurrentCompletionSettlesOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 60_000_000, domain.OrderTypeCredit, "job")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusInProgress)
	require.NoError(t, err)

	n := 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, order.ID, partner.ID, domain.OrderStatusCompleted)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidState)
		}
	}
	assert.Equal(t, 1, successes)

	// Exactly one settlement applied.
	assert.Equal(t, int64(40_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(60_000_000), balanceOf(t, pool, partner.ID))
	assert.Equal(t, 1, entryCount(t, pool, mcp.ID))
	assert.Equal(t, 1, entryCount(t, pool, partner.ID))
}

func TestAssignOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)
	other := createTestUser(t, store, "sola", domain.RolePartner, 0)

	order, err := svc.Create(ctx, mcp.ID, partner.ID, 60_000_000, domain.OrderTypeCredit, "job")
	require.NoError(t, err)

	// Only the owning MCP may assign.
	_, err = svc.Assign(ctx, order.ID, partner.ID, other.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	order, err = svc.Assign(ctx, order.ID, mcp.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAssigned, order.Status)
	assert.Equal(t, other.ID, order.PartnerID)

	// assigned -> assigned is not in the table.
	_, err = svc.Assign(ctx, order.ID, mcp.ID, partner.ID)
	require.ErrorIs(t, err, models.ErrInvalidState)

	// Inactive partners cannot be assigned.
	order2, err := svc.Create(ctx, mcp.ID, partner.ID, 10_000_000, domain.OrderTypeCredit, "second")
	require.NoError(t, err)
	_, err = store.Queries().UpdateUserStatus(ctx, other.ID, "suspended")
	require.NoError(t, err)
	_, err = svc.Assign(ctx, order2.ID, mcp.ID, other.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateOrderValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewOrderService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 0)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)
	otherMCP := createTestUser(t, store, "tunde", domain.RoleMCP, 0)

	_, err := svc.Create(ctx, mcp.ID, partner.ID, 0, domain.OrderTypeCredit, "")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, mcp.ID, partner.ID, 10_000_000, "refund", "")
	require.ErrorIs(t, err, models.ErrValidation)

	// Orders must target partner accounts.
	_, err = svc.Create(ctx, mcp.ID, otherMCP.ID, 10_000_000, domain.OrderTypeCredit, "")
	require.ErrorIs(t, err, models.ErrNotFound)

	// Inactive partners are not orderable.
	_, err = store.Queries().UpdateUserStatus(ctx, partner.ID, "inactive")
	require.NoError(t, err)
	_, err = svc.Create(ctx, mcp.ID, partner.ID, 10_000_000, domain.OrderTypeCredit, "")
	require.ErrorIs(t, err, models.ErrNotFound)
}
