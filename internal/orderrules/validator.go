package orderrules

import (
	"fmt"

	"bazarhub-backend/internal/domain"
)

// RejectReason is a stable, enumerable rejection code. The presentation
// layer maps each value 1:1 to a user-facing message.
type RejectReason string

const (
	ReasonFinalizedOrder        RejectReason = "FINALIZED_ORDER"
	ReasonIllegalTransition     RejectReason = "ILLEGAL_TRANSITION"
	ReasonCodPaidBeforeDelivery RejectReason = "COD_PAID_BEFORE_DELIVERY"
	ReasonOnlineMustStayPaid    RejectReason = "ONLINE_MUST_STAY_PAID"
	ReasonRefundStatusRequired  RejectReason = "REFUND_STATUS_REQUIRED"
	ReasonPendingRefundLocked   RejectReason = "PENDING_REFUND_LOCKED"
)

func (r RejectReason) Error() string {
	return fmt.Sprintf("order update rejected: %s", string(r))
}

// Snapshot is the order state the validator decides against. RefundProof is
// nil when no proof has been attached yet.
type Snapshot struct {
	Status        domain.OrderStatus
	PayStatus     domain.PayStatus
	RefundStatus  domain.RefundStatus
	RefundProof   *string
	PaymentMethod domain.PaymentMethod
}

// SnapshotOf extracts the rule-relevant fields from a stored order.
func SnapshotOf(o *domain.Order) Snapshot {
	return Snapshot{
		Status:        o.Status,
		PayStatus:     o.PayStatus,
		RefundStatus:  o.RefundStatus,
		RefundProof:   o.RefundProof,
		PaymentMethod: o.PaymentMethod,
	}
}

// Decision is the discriminated result of Validate. Exactly one of the three
// shapes holds: rejected (Allowed false, Reason set), accepted no-op
// (Allowed true, NoOp true, empty Changed), or accepted with the genuinely
// changed fields in Changed.
type Decision struct {
	Allowed bool
	NoOp    bool
	Changed domain.OrderPatch
	Reason  RejectReason
}

func accept(changed domain.OrderPatch) Decision {
	return Decision{Allowed: true, Changed: changed}
}

func acceptNoOp() Decision {
	return Decision{Allowed: true, NoOp: true}
}

func reject(reason RejectReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// IsFinalized reports whether the order has reached a state/payment
// combination that accepts no further field changes.
func IsFinalized(s Snapshot) bool {
	switch s.PaymentMethod {
	case domain.PaymentMethodCOD:
		if s.Status == domain.OrderStatusDelivered && s.PayStatus == domain.PayStatusPaid {
			return true
		}
		if s.Status == domain.OrderStatusCancelled && s.PayStatus == domain.PayStatusUnpaid {
			return true
		}
	case domain.PaymentMethodOnline:
		if s.Status == domain.OrderStatusDelivered && s.PayStatus == domain.PayStatusPaid {
			return true
		}
		if s.Status == domain.OrderStatusCancelled && s.RefundStatus == domain.RefundStatusRefunded {
			return true
		}
	}
	return false
}

// Validate decides whether the proposed partial update may be applied to the
// snapshot. It never mutates its inputs and performs no I/O. Malformed enum
// values fail closed as ReasonIllegalTransition.
//
// The pending-refund lock is evaluated before the transition check so that a
// locked order always reports ReasonPendingRefundLocked, even when the
// proposed status move would also be illegal.
func Validate(s Snapshot, proposed domain.OrderPatch) Decision {
	changed := diff(s, proposed)

	// Idempotent success: nothing differs from the snapshot, the caller
	// must not hit the persistence layer.
	if changed.IsEmpty() {
		return acceptNoOp()
	}

	if IsFinalized(s) {
		return reject(ReasonFinalizedOrder)
	}

	// Fail closed on anything outside the known enumerations.
	if !wellFormed(s, changed) {
		return reject(ReasonIllegalTransition)
	}

	if s.RefundStatus == domain.RefundStatusPending {
		if changed.Status != nil || changed.PayStatus != nil {
			return reject(ReasonPendingRefundLocked)
		}
	}

	if changed.Status != nil && !updateTransitionAllowed(s.Status, *changed.Status) {
		return reject(ReasonIllegalTransition)
	}

	// Payment-method invariants run against the effective post-update values.
	effStatus := s.Status
	if changed.Status != nil {
		effStatus = *changed.Status
	}
	effPay := s.PayStatus
	if changed.PayStatus != nil {
		effPay = *changed.PayStatus
	}
	effRefund := s.RefundStatus
	if changed.RefundStatus != nil {
		effRefund = *changed.RefundStatus
	}

	switch s.PaymentMethod {
	case domain.PaymentMethodCOD:
		if effPay == domain.PayStatusPaid && !effStatus.IsTerminal() {
			return reject(ReasonCodPaidBeforeDelivery)
		}
	case domain.PaymentMethodOnline:
		if effStatus != domain.OrderStatusCancelled && effPay != domain.PayStatusPaid {
			return reject(ReasonOnlineMustStayPaid)
		}
		if effStatus == domain.OrderStatusCancelled && effPay == domain.PayStatusPaid &&
			effRefund != domain.RefundStatusPending && effRefund != domain.RefundStatusRefunded {
			return reject(ReasonRefundStatusRequired)
		}
	}

	return accept(changed)
}

// updateTransitionAllowed is the transition rule applied to admin updates.
// It follows the one-step table, plus one widening: an order that has not
// reached a terminal state may always be cancelled, even from statuses whose
// table row omits cancelled. The payment-method invariants then decide
// whether the cancellation needs refund bookkeeping.
func updateTransitionAllowed(current, proposed domain.OrderStatus) bool {
	if proposed == domain.OrderStatusCancelled {
		return !current.IsTerminal()
	}
	return IsTransitionAllowed(current, proposed)
}

// diff keeps only the fields whose proposed value differs from the snapshot.
func diff(s Snapshot, proposed domain.OrderPatch) domain.OrderPatch {
	var changed domain.OrderPatch
	if proposed.Status != nil && *proposed.Status != s.Status {
		changed.Status = proposed.Status
	}
	if proposed.PayStatus != nil && *proposed.PayStatus != s.PayStatus {
		changed.PayStatus = proposed.PayStatus
	}
	if proposed.RefundStatus != nil && *proposed.RefundStatus != s.RefundStatus {
		changed.RefundStatus = proposed.RefundStatus
	}
	if proposed.RefundProof != nil && (s.RefundProof == nil || *s.RefundProof != *proposed.RefundProof) {
		changed.RefundProof = proposed.RefundProof
	}
	return changed
}

func wellFormed(s Snapshot, changed domain.OrderPatch) bool {
	if !s.Status.IsValid() || !s.PayStatus.IsValid() || !s.RefundStatus.IsValid() || !s.PaymentMethod.IsValid() {
		return false
	}
	if changed.Status != nil && !changed.Status.IsValid() {
		return false
	}
	if changed.PayStatus != nil && !changed.PayStatus.IsValid() {
		return false
	}
	if changed.RefundStatus != nil && !changed.RefundStatus.IsValid() {
		return false
	}
	return true
}
