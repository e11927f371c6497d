package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var microsPerUnit = decimal.NewFromInt(1_000_000)

// Address is the structured location attached to an account, stored as JSONB.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// User is an account holder. Every user owns exactly one wallet; the balance
// lives on the user row, the history in wallet_entries.
type User struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone"`
	Address       Address   `json:"address"`
	Role          string    `json:"role"`   // "mcp" or "partner"
	Status        string    `json:"status"` // "active", "inactive", "suspended"
	BalanceMicros int64     `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Balance exposes the wallet balance as a decimal.
func (u User) Balance() decimal.Decimal {
	return decimal.NewFromInt(u.BalanceMicros).Div(microsPerUnit)
}

// MarshalJSON attaches the wallet balance under the shape clients expect.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Wallet struct {
			Balance decimal.Decimal `json:"balance"`
		} `json:"wallet"`
	}{
		alias: alias(u),
		Wallet: struct {
			Balance decimal.Decimal `json:"balance"`
		}{Balance: u.Balance()},
	})
}

// WalletEntry is one immutable line of a user's wallet ledger.
type WalletEntry struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"-"`
	Direction    string    `json:"type"` // "credit" or "debit"
	AmountMicros int64     `json:"-"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"date"`
}

// Amount exposes the entry amount as a decimal.
func (e WalletEntry) Amount() decimal.Decimal {
	return decimal.NewFromInt(e.AmountMicros).Div(microsPerUnit)
}

func (e WalletEntry) MarshalJSON() ([]byte, error) {
	type alias WalletEntry
	return json.Marshal(struct {
		alias
		Amount decimal.Decimal `json:"amount"`
	}{alias: alias(e), Amount: e.Amount()})
}

// Party is the counterparty summary joined onto order listings.
type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}

// Order joins one MCP and one Partner around an amount.
type Order struct {
	ID           uuid.UUID  `json:"id"`
	MCPID        uuid.UUID  `json:"mcpId"`
	PartnerID    uuid.UUID  `json:"partnerId"`
	AmountMicros int64      `json:"-"`
	Type         string     `json:"type"` // "credit" or "debit"
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	// Populated on list/read paths only.
	MCP     *Party `json:"mcp,omitempty"`
	Partner *Party `json:"partner,omitempty"`
}

// Amount exposes the order amount as a decimal.
func (o Order) Amount() decimal.Decimal {
	return decimal.NewFromInt(o.AmountMicros).Div(microsPerUnit)
}

func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		Amount decimal.Decimal `json:"amount"`
	}{alias: alias(o), Amount: o.Amount()})
}
