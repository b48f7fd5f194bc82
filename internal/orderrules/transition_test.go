package orderrules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bazarhub-backend/internal/domain"
)

var allStatuses = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusConfirmed,
	domain.OrderStatusShipping,
	domain.OrderStatusDelivered,
	domain.OrderStatusCancelled,
}

func TestIsTransitionAllowed_Table(t *testing.T) {
	// The full matrix, pair by pair. Same-status pairs are covered by
	// TestIsTransitionAllowed_SameStatus.
	allowed := map[domain.OrderStatus][]domain.OrderStatus{
		domain.OrderStatusPending: {
			domain.OrderStatusConfirmed,
			domain.OrderStatusShipping,
			domain.OrderStatusDelivered,
			domain.OrderStatusCancelled,
		},
		domain.OrderStatusConfirmed: {
			domain.OrderStatusShipping,
			domain.OrderStatusDelivered,
		},
		domain.OrderStatusShipping: {
			domain.OrderStatusDelivered,
		},
		domain.OrderStatusDelivered: {},
		domain.OrderStatusCancelled: {},
	}

	for _, current := range allStatuses {
		for _, proposed := range allStatuses {
			if current == proposed {
				continue
			}
			want := false
			for _, s := range allowed[current] {
				if s == proposed {
					want = true
				}
			}
			got := IsTransitionAllowed(current, proposed)
			assert.Equalf(t, want, got, "%s -> %s", current, proposed)
		}
	}
}

func TestIsTransitionAllowed_SameStatus(t *testing.T) {
	// A no-op "transition" is always allowed, terminal statuses included.
	for _, s := range allStatuses {
		assert.Truef(t, IsTransitionAllowed(s, s), "%s -> %s", s, s)
	}
}

func TestIsTransitionAllowed_TerminalLock(t *testing.T) {
	for _, current := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		for _, proposed := range allStatuses {
			if proposed == current {
				continue
			}
			assert.Falsef(t, IsTransitionAllowed(current, proposed), "%s -> %s must be blocked", current, proposed)
		}
	}
}

func TestIsTransitionAllowed_UnknownStatusFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		current  domain.OrderStatus
		proposed domain.OrderStatus
	}{
		{"unknown current", "shipped", domain.OrderStatusDelivered},
		{"unknown proposed", domain.OrderStatusPending, "processing"},
		{"both unknown", "foo", "bar"},
		{"equal but unknown", "foo", "foo"},
		{"empty", "", domain.OrderStatusPending},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.False(t, IsTransitionAllowed(test.current, test.proposed))
		})
	}
}

func TestNextStatuses(t *testing.T) {
	tests := []struct {
		current  domain.OrderStatus
		expected []domain.OrderStatus
	}{
		{domain.OrderStatusPending, []domain.OrderStatus{
			domain.OrderStatusConfirmed,
			domain.OrderStatusShipping,
			domain.OrderStatusDelivered,
			domain.OrderStatusCancelled,
		}},
		{domain.OrderStatusConfirmed, []domain.OrderStatus{
			domain.OrderStatusShipping,
			domain.OrderStatusDelivered,
		}},
		{domain.OrderStatusShipping, []domain.OrderStatus{
			domain.OrderStatusDelivered,
		}},
		{domain.OrderStatusDelivered, []domain.OrderStatus{}},
		{domain.OrderStatusCancelled, []domain.OrderStatus{}},
	}
	for _, test := range tests {
		t.Run(string(test.current), func(t *testing.T) {
			assert.Equal(t, test.expected, NextStatuses(test.current))
		})
	}

	assert.Nil(t, NextStatuses("refunded"))
}
