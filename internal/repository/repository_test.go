package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/mcpops/portal/internal/db"
	"github.com/mcpops/portal/internal/models"
)

func init() {
	_ = godotenv.Load("../../.env") // Load from root
}

func testPool(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	pool, err := db.Connect(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return NewStore(pool)
}

func TestCreateAndGetUser(t *testing.T) {
	store := testPool(t)
	q := store.Queries()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{
		ID:           userID,
		Name:         "testuser_" + userID.String()[:8],
		Email:        "test_" + userID.String()[:8] + "@example.com",
		PasswordHash: "hash",
		Role:         "partner",
		Status:       "active",
		Address:      models.Address{City: "Lagos"},
	}

	if err := q.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set on insert")
	}

	dbUser, err := q.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if dbUser.Email != user.Email {
		t.Errorf("Expected email %s, got %s", user.Email, dbUser.Email)
	}
	if dbUser.Address.City != "Lagos" {
		t.Errorf("Expected address city Lagos, got %q", dbUser.Address.City)
	}
	if dbUser.BalanceMicros != 0 {
		t.Errorf("Expected balance 0, got %d", dbUser.BalanceMicros)
	}

	byEmail, err := q.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, byEmail.ID)
	}
}

func TestAdjustBalanceAndEntries(t *testing.T) {
	store := testPool(t)
	q := store.Queries()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{
		ID:           userID,
		Name:         "wallet_" + userID.String()[:8],
		Email:        "wallet_" + userID.String()[:8] + "@example.com",
		PasswordHash: "hash",
		Role:         "mcp",
		Status:       "active",
	}
	if err := q.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	rows, err := q.AdjustBalance(ctx, user.ID, 5_000_000)
	if err != nil || rows != 1 {
		t.Fatalf("AdjustBalance failed: rows=%d err=%v", rows, err)
	}

	entry := &models.WalletEntry{
		ID:           uuid.New(),
		UserID:       user.ID,
		Direction:    "credit",
		AmountMicros: 5_000_000,
		Description:  "seed",
	}
	if err := q.InsertWalletEntry(ctx, entry); err != nil {
		t.Fatalf("InsertWalletEntry failed: %v", err)
	}

	entries, err := q.ListWalletEntries(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListWalletEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].AmountMicros != 5_000_000 {
		t.Errorf("Expected amount 5000000, got %d", entries[0].AmountMicros)
	}
}

func TestGetWalletSnapshot(t *testing.T) {
	store := testPool(t)
	q := store.Queries()
	ctx := context.Background()

	userID := uuid.New()
	user := &models.User{
		ID:           userID,
		Name:         "snap_" + userID.String()[:8],
		Email:        "snap_" + userID.String()[:8] + "@example.com",
		PasswordHash: "hash",
		Role:         "mcp",
		Status:       "active",
	}
	if err := q.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// A wallet with no entries still resolves its owner.
	got, entries, err := q.GetWalletSnapshot(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetWalletSnapshot failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, got.ID)
	}
	if len(entries) != 0 {
		t.Fatalf("Expected no entries, got %d", len(entries))
	}

	for i, e := range []struct {
		direction string
		amount    int64
	}{
		{"credit", 10_000_000},
		{"debit", 3_000_000},
		{"credit", 1_000_000},
	} {
		if err := q.InsertWalletEntry(ctx, &models.WalletEntry{
			ID:           uuid.New(),
			UserID:       user.ID,
			Direction:    e.direction,
			AmountMicros: e.amount,
			Description:  "snap",
		}); err != nil {
			t.Fatalf("InsertWalletEntry %d failed: %v", i, err)
		}
	}
	if _, err := q.AdjustBalance(ctx, user.ID, 8_000_000); err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}

	got, entries, err = q.GetWalletSnapshot(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetWalletSnapshot failed: %v", err)
	}
	if got.BalanceMicros != 8_000_000 {
		t.Errorf("Expected balance 8000000, got %d", got.BalanceMicros)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	// Entries come back in append order.
	for i, want := range []struct {
		direction string
		amount    int64
	}{
		{"credit", 10_000_000},
		{"debit", 3_000_000},
		{"credit", 1_000_000},
	} {
		if entries[i].Direction != want.direction || entries[i].AmountMicros != want.amount {
			t.Errorf("Entry %d: expected %s %d, got %s %d",
				i, want.direction, want.amount, entries[i].Direction, entries[i].AmountMicros)
		}
	}

	if _, _, err := q.GetWalletSnapshot(ctx, uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("Expected pgx.ErrNoRows for unknown user, got %v", err)
	}
}

func TestOrderQueries(t *testing.T) {
	store := testPool(t)
	q := store.Queries()
	ctx := context.Background()

	mcpID, partnerID := uuid.New(), uuid.New()
	for _, u := range []*models.User{
		{ID: mcpID, Name: "order_mcp", Email: "om_" + mcpID.String()[:8] + "@example.com", PasswordHash: "x", Role: "mcp", Status: "active"},
		{ID: partnerID, Name: "order_partner", Email: "op_" + partnerID.String()[:8] + "@example.com", PasswordHash: "x", Role: "partner", Status: "active"},
	} {
		if err := q.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	order := &models.Order{
		ID:           uuid.New(),
		MCPID:        mcpID,
		PartnerID:    partnerID,
		AmountMicros: 25_000_000,
		Type:         "credit",
		Description:  "repo order",
		Status:       "pending",
	}
	if err := q.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := q.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != "pending" || got.CompletedAt != nil {
		t.Errorf("Unexpected order state: status=%s completedAt=%v", got.Status, got.CompletedAt)
	}

	mcpOrders, err := q.ListOrdersForMCP(ctx, mcpID)
	if err != nil {
		t.Fatalf("ListOrdersForMCP failed: %v", err)
	}
	if len(mcpOrders) != 1 {
		t.Fatalf("Expected 1 mcp order, got %d", len(mcpOrders))
	}
	if mcpOrders[0].Partner == nil || mcpOrders[0].Partner.Name != "order_partner" {
		t.Error("Expected partner summary joined onto mcp listing")
	}

	partnerOrders, err := q.ListOrdersForPartner(ctx, partnerID)
	if err != nil {
		t.Fatalf("ListOrdersForPartner failed: %v", err)
	}
	if len(partnerOrders) != 1 {
		t.Fatalf("Expected 1 partner order, got %d", len(partnerOrders))
	}
	if partnerOrders[0].MCP == nil || partnerOrders[0].MCP.Name != "order_mcp" {
		t.Error("Expected mcp summary joined onto partner listing")
	}

	if rows, err := q.AssignOrder(ctx, order.ID, partnerID); err != nil || rows != 1 {
		t.Fatalf("AssignOrder failed: rows=%d err=%v", rows, err)
	}
	got, err = q.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != "assigned" {
		t.Errorf("Expected status assigned, got %s", got.Status)
	}
}

func TestIdempotencyKeyReserveFinalize(t *testing.T) {
	store := testPool(t)
	q := store.Queries()
	ctx := context.Background()

	key := "test-key-" + uuid.New().String()
	params := ReserveIdempotencyKeyParams{
		IdempotencyKey: key,
		RequestHash:    "hash-1",
		Method:         "POST",
		Path:           "/api/wallet/funds",
	}

	reserved, err := q.ReserveIdempotencyKey(ctx, params)
	if err != nil {
		t.Fatalf("ReserveIdempotencyKey failed: %v", err)
	}
	if !reserved {
		t.Fatal("Expected first reserve to succeed")
	}

	// Second reserve on the same key loses the race.
	reserved, err = q.ReserveIdempotencyKey(ctx, params)
	if err != nil {
		t.Fatalf("ReserveIdempotencyKey failed: %v", err)
	}
	if reserved {
		t.Fatal("Expected duplicate reserve to fail")
	}

	row, err := q.FinalizeIdempotencyKey(ctx, FinalizeIdempotencyKeyParams{
		ResponseStatus: 200,
		ResponseBody:   []byte(`{"ok":true}`),
		ContentType:    "application/json",
		IdempotencyKey: key,
		RequestHash:    "hash-1",
	})
	if err != nil {
		t.Fatalf("FinalizeIdempotencyKey failed: %v", err)
	}
	if row.InProgress {
		t.Error("Expected in_progress to be cleared after finalize")
	}
	if row.ResponseStatus != 200 {
		t.Errorf("Expected status 200, got %d", row.ResponseStatus)
	}

	got, err := q.GetIdempotencyKey(ctx, key)
	if err != nil {
		t.Fatalf("GetIdempotencyKey failed: %v", err)
	}
	if string(got.ResponseBody) != `{"ok":true}` {
		t.Errorf("Unexpected replay body: %s", got.ResponseBody)
	}
}
