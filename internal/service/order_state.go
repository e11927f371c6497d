package service

import (
	"strings"

	"github.com/mcpops/portal/internal/domain"
)

// orderTransitions is the total transition table for order status. Terminal
// states have no exits; assignment is an ordinary transition, not a
// side-channel write.
var orderTransitions = map[string]map[string]struct{}{
	domain.OrderStatusPending: {
		domain.OrderStatusAssigned:   {},
		domain.OrderStatusInProgress: {},
		domain.OrderStatusCancelled:  {},
	},
	domain.OrderStatusAssigned: {
		domain.OrderStatusInProgress: {},
		domain.OrderStatusCancelled:  {},
	},
	domain.OrderStatusInProgress: {
		domain.OrderStatusCompleted: {},
		domain.OrderStatusCancelled: {},
	},
	domain.OrderStatusCompleted: {},
	domain.OrderStatusCancelled: {},
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func canTransition(current, next string) bool {
	current = normalizeStatus(current)
	next = normalizeStatus(next)
	nextStates, ok := orderTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

func knownStatus(status string) bool {
	_, ok := orderTransitions[normalizeStatus(status)]
	return ok
}
