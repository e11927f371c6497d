package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/models"
	"github.com/mcpops/portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFundsAndWithdraw(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 0)

	err := svc.AddFunds(ctx, mcp.ID, 100_000_000, "initial top-up")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, mcp.ID))

	err = svc.Withdraw(ctx, mcp.ID, 30_000_000, "cash out")
	require.NoError(t, err)
	assert.Equal(t, int64(70_000_000), balanceOf(t, pool, mcp.ID))

	user, entries, err := svc.GetWallet(ctx, mcp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000_000), user.BalanceMicros)
	require.Len(t, entries, 2)
	// Append order, oldest first
	assert.Equal(t, domain.DirectionCredit, entries[0].Direction)
	assert.Equal(t, "initial top-up", entries[0].Description)
	assert.Equal(t, domain.DirectionDebit, entries[1].Direction)
	assert.Equal(t, "cash out", entries[1].Description)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 10_000_000)

	err := svc.Withdraw(ctx, mcp.ID, 20_000_000, "")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	// Balance untouched, no ledger entry written.
	assert.Equal(t, int64(10_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, 0, entryCount(t, pool, mcp.ID))
}

func TestWalletAmountValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 0)

	require.ErrorIs(t, svc.AddFunds(ctx, mcp.ID, 0, ""), models.ErrValidation)
	require.ErrorIs(t, svc.AddFunds(ctx, mcp.ID, -5, ""), models.ErrValidation)
	require.ErrorIs(t, svc.Withdraw(ctx, mcp.ID, 0, ""), models.ErrValidation)
	require.ErrorIs(t, svc.Transfer(ctx, mcp.ID, mcp.ID, 5_000_000, ""), models.ErrValidation)
}

func TestTransfer(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	err := svc.Transfer(ctx, mcp.ID, partner.ID, 50_000_000, "advance")
	require.NoError(t, err)

	assert.Equal(t, int64(50_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(50_000_000), balanceOf(t, pool, partner.ID))
	assert.Equal(t, 1, entryCount(t, pool, mcp.ID))
	assert.Equal(t, 1, entryCount(t, pool, partner.ID))
}

func TestTransferRoleChecks(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	otherMCP := createTestUser(t, store, "tunde", domain.RoleMCP, 0)
	partner := createTestUser(t, store, "david", domain.RolePartner, 100_000_000)

	// Partners cannot initiate transfers.
	err := svc.Transfer(ctx, partner.ID, mcp.ID, 10_000_000, "")
	require.ErrorIs(t, err, models.ErrForbidden)

	// Transfers must target a partner account.
	err = svc.Transfer(ctx, mcp.ID, otherMCP.ID, 10_000_000, "")
	require.ErrorIs(t, err, models.ErrNotFound)

	// Unknown destination.
	err = svc.Transfer(ctx, mcp.ID, uuid.New(), 10_000_000, "")
	require.ErrorIs(t, err, models.ErrNotFound)

	// MCP balance cannot go negative on a transfer.
	err = svc.Transfer(ctx, mcp.ID, partner.ID, 200_000_000, "")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, partner.ID))
}

func TestTransferConcurrent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewWalletService(store)
	ctx := context.Background()

	mcp := createTestUser(t, store, "ayo", domain.RoleMCP, 100_000_000)
	partner := createTestUser(t, store, "david", domain.RolePartner, 0)

	// Concurrent transfers serialize on the ascending-ID row locks.
	n := 10
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			errs <- svc.Transfer(ctx, mcp.ID, partner.ID, 10_000_000, "batch")
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}

	assert.Equal(t, int64(0), balanceOf(t, pool, mcp.ID))
	assert.Equal(t, int64(100_000_000), balanceOf(t, pool, partner.ID))
	assert.Equal(t, n, entryCount(t, pool, mcp.ID))
	assert.Equal(t, n, entryCount(t, pool, partner.ID))
}
