package service

import (
	"testing"

	"github.com/mcpops/portal/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusAssigned, true},
		{domain.OrderStatusPending, domain.OrderStatusInProgress, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusCompleted, false},
		{domain.OrderStatusAssigned, domain.OrderStatusInProgress, true},
		{domain.OrderStatusAssigned, domain.OrderStatusCancelled, true},
		{domain.OrderStatusAssigned, domain.OrderStatusCompleted, false},
		{domain.OrderStatusInProgress, domain.OrderStatusCompleted, true},
		{domain.OrderStatusInProgress, domain.OrderStatusCancelled, true},
		{domain.OrderStatusInProgress, domain.OrderStatusAssigned, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCompleted, domain.OrderStatusInProgress, false},
		{domain.OrderStatusCancelled, domain.OrderStatusInProgress, false},
		{domain.OrderStatusCancelled, domain.OrderStatusCompleted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, canTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionSelfLoopsRejected(t *testing.T) {
	for _, status := range []string{
		domain.OrderStatusPending,
		domain.OrderStatusAssigned,
		domain.OrderStatusInProgress,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
	} {
		assert.False(t, canTransition(status, status), "%s -> %s", status, status)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.True(t, canTransition("  Pending ", "IN_PROGRESS"))
	assert.False(t, knownStatus("shipped"))
	assert.True(t, knownStatus("Completed"))
}
