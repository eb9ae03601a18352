package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusAccepted, OrderStatusCancelled},
		OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusCancelled},
		OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusCompleted:  {OrderStatusRefunded},
		OrderStatusCancelled:  {OrderStatusRefunded},
		OrderStatusRefunded:   {},
	}

	all := []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}

	for from, targets := range allowed {
		permitted := map[OrderStatus]bool{}
		for _, to := range targets {
			permitted[to] = true
		}
		for _, to := range all {
			assert.Equal(t, permitted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusSelfTransitionDisallowed(t *testing.T) {
	for _, status := range []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusInProgress,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
	} {
		assert.False(t, status.CanTransitionTo(status), "%s -> %s", status, status)
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusAccepted.IsTerminal())
	assert.False(t, OrderStatusInProgress.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInProgress, status)

	_, err = ParseOrderStatus("shipped")
	require.Error(t, err)
}
