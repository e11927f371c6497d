package service

import (
	"context"
	"fmt"

	"github.com/mcpops/portal/internal/observability"
	"go.uber.org/zap"
)

// ReconciliationService verifies the wallet ledger invariant: every balance
// must equal the signed sum of its entries.
type ReconciliationService struct {
	store QueryStore
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run reports every wallet whose balance diverged from its entry history.
func (s *ReconciliationService) Run(ctx context.Context) error {
	imbalances, err := s.store.Queries().WalletImbalances(ctx)
	if err != nil {
		return fmt.Errorf("run wallet imbalance query: %w", err)
	}

	if len(imbalances) > 0 {
		for _, im := range imbalances {
			observability.IncrementWalletImbalance()
			zap.L().Error("CRITICAL: wallet imbalance detected",
				zap.String("user_id", im.UserID.String()),
				zap.Int64("balance_micros", im.BalanceMicros),
				zap.Int64("entry_net_micros", im.EntryNet),
			)
		}
		return nil
	}

	zap.L().Info("wallet ledger balanced")
	return nil
}
