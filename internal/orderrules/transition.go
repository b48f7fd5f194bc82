// Package orderrules is the single authority on order status transitions
// and partial-update validation. It is pure: no I/O, no clock, no storage.
// Handlers and usecases must consult it before issuing any order mutation.
package orderrules

import (
	"bazarhub-backend/internal/domain"
)

// legalNext maps a status to the statuses reachable in one step. Admins may
// move a pending order directly to any later state; delivered and cancelled
// are terminal.
var legalNext = map[domain.OrderStatus][]domain.OrderStatus{
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

// IsTransitionAllowed reports whether orderStatus may move from current to
// proposed in one step. A same-status "transition" is always allowed (it
// signals an untouched field). Unknown statuses fail closed.
func IsTransitionAllowed(current, proposed domain.OrderStatus) bool {
	if !current.IsValid() || !proposed.IsValid() {
		return false
	}
	if proposed == current {
		return true
	}
	if current.IsTerminal() {
		return false
	}
	for _, next := range legalNext[current] {
		if next == proposed {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from current in one step,
// excluding current itself. The dashboard uses this to disable dropdown
// options. Unknown statuses yield nil.
func NextStatuses(current domain.OrderStatus) []domain.OrderStatus {
	if !current.IsValid() {
		return nil
	}
	next := legalNext[current]
	out := make([]domain.OrderStatus, len(next))
	copy(out, next)
	return out
}
