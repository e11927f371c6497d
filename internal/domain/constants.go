package domain

const (
	RoleMCP     = "mcp"
	RolePartner = "partner"

	AccountStatusActive    = "active"
	AccountStatusInactive  = "inactive"
	AccountStatusSuspended = "suspended"

	DirectionDebit  = "debit"
	DirectionCredit = "credit"

	OrderTypeCredit = "credit"
	OrderTypeDebit  = "debit"

	OrderStatusPending    = "pending"
	OrderStatusAssigned   = "assigned"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ValidAccountStatus reports whether s is one of the three account statuses.
func ValidAccountStatus(s string) bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusSuspended:
		return true
	}
	return false
}

// ValidOrderType reports whether t is a recognized order type.
func ValidOrderType(t string) bool {
	return t == OrderTypeCredit || t == OrderTypeDebit
}

// ValidRole reports whether r is a registerable account role.
func ValidRole(r string) bool {
	return r == RoleMCP || r == RolePartner
}
