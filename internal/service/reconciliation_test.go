package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestReconciliationRun(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	store := repository.NewStore(pool)
	walletSvc := NewWalletService(store)
	reconcileSvc := NewReconciliationService(store)

	mcp := createTestUser(t, store, "rec-a", domain.RoleMCP, 0)
	partner := createTestUser(t, store, "rec-b", domain.RolePartner, 0)

	require.NoError(t, walletSvc.AddFunds(ctx, mcp.ID, 100_000_000, "seed"))
	require.NoError(t, walletSvc.Transfer(ctx, mcp.ID, partner.ID, 40_000_000, "rec"))

	// Balances match entry history, nothing to report.
	require.NoError(t, reconcileSvc.Run(ctx))
	imbalances, err := store.Queries().WalletImbalances(ctx)
	require.NoError(t, err)
	require.Empty(t, imbalances)

	// Corrupt a balance behind the ledger's back.
	_, err = pool.Exec(ctx, "UPDATE users SET balance_micros = balance_micros + 5000 WHERE id = $1", mcp.ID)
	require.NoError(t, err)

	require.NoError(t, reconcileSvc.Run(ctx))
	imbalances, err = store.Queries().WalletImbalances(ctx)
	require.NoError(t, err)
	require.Len(t, imbalances, 1)
	require.Equal(t, mcp.ID, imbalances[0].UserID)
	require.Equal(t, imbalances[0].EntryNet+5000, imbalances[0].BalanceMicros)

	// Users with no entries but a nonzero balance are also caught.
	stray := createTestUser(t, store, "rec-c", domain.RolePartner, 7_000_000)
	require.NoError(t, reconcileSvc.Run(ctx))
	imbalances, err = store.Queries().WalletImbalances(ctx)
	require.NoError(t, err)
	require.Len(t, imbalances, 2)

	ids := []uuid.UUID{imbalances[0].UserID, imbalances[1].UserID}
	require.Contains(t, ids, stray.ID)
}
