package orderrules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bazarhub-backend/internal/domain"
)

func statusPtr(s domain.OrderStatus) *domain.OrderStatus   { return &s }
func payPtr(s domain.PayStatus) *domain.PayStatus          { return &s }
func refundPtr(s domain.RefundStatus) *domain.RefundStatus { return &s }
func strPtr(s string) *string                              { return &s }

func codOrder(status domain.OrderStatus, pay domain.PayStatus) Snapshot {
	return Snapshot{
		Status:        status,
		PayStatus:     pay,
		RefundStatus:  domain.RefundStatusNotApplicable,
		PaymentMethod: domain.PaymentMethodCOD,
	}
}

func onlineOrder(status domain.OrderStatus, pay domain.PayStatus, refund domain.RefundStatus) Snapshot {
	return Snapshot{
		Status:        status,
		PayStatus:     pay,
		RefundStatus:  refund,
		PaymentMethod: domain.PaymentMethodOnline,
	}
}

func TestValidate_NoOpShortCircuit(t *testing.T) {
	snap := codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid)

	// Proposal identical to the snapshot in all fields.
	d := Validate(snap, domain.OrderPatch{
		Status:       statusPtr(domain.OrderStatusPending),
		PayStatus:    payPtr(domain.PayStatusUnpaid),
		RefundStatus: refundPtr(domain.RefundStatusNotApplicable),
	})
	assert.True(t, d.Allowed)
	assert.True(t, d.NoOp)
	assert.True(t, d.Changed.IsEmpty())

	// Empty proposal.
	d = Validate(snap, domain.OrderPatch{})
	assert.True(t, d.Allowed)
	assert.True(t, d.NoOp)
}

func TestValidate_NoOpEvenWhenFinalized(t *testing.T) {
	snap := codOrder(domain.OrderStatusDelivered, domain.PayStatusPaid)

	d := Validate(snap, domain.OrderPatch{Status: statusPtr(domain.OrderStatusDelivered)})
	assert.True(t, d.Allowed)
	assert.True(t, d.NoOp)
}

func TestValidate_FinalizedRejectsAnyChange(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"cod delivered paid", codOrder(domain.OrderStatusDelivered, domain.PayStatusPaid)},
		{"cod cancelled unpaid", codOrder(domain.OrderStatusCancelled, domain.PayStatusUnpaid)},
		{"online delivered paid", onlineOrder(domain.OrderStatusDelivered, domain.PayStatusPaid, domain.RefundStatusNotApplicable)},
		{"online cancelled refunded", onlineOrder(domain.OrderStatusCancelled, domain.PayStatusPaid, domain.RefundStatusRefunded)},
	}

	patches := []domain.OrderPatch{
		{Status: statusPtr(domain.OrderStatusPending)},
		{PayStatus: payPtr(domain.PayStatusUnpaid)},
		{RefundStatus: refundPtr(domain.RefundStatusPending)},
		{RefundProof: strPtr("https://cdn.example.com/proof.webp")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, patch := range patches {
				d := Validate(test.snap, patch)
				if d.NoOp {
					// A patch equal to the stored value diffs away; skip.
					continue
				}
				assert.False(t, d.Allowed)
				assert.Equal(t, ReasonFinalizedOrder, d.Reason)
			}
		})
	}
}

func TestValidate_NonFinalizedCombinations(t *testing.T) {
	// These look terminal-ish but must still accept updates.
	tests := []struct {
		name  string
		snap  Snapshot
		patch domain.OrderPatch
	}{
		{
			// COD delivered but cash not yet collected: pay may still flip.
			"cod delivered unpaid",
			codOrder(domain.OrderStatusDelivered, domain.PayStatusUnpaid),
			domain.OrderPatch{PayStatus: payPtr(domain.PayStatusPaid)},
		},
		{
			// Online cancellation awaiting refund: refund fields may move.
			"online cancelled pending refund",
			onlineOrder(domain.OrderStatusCancelled, domain.PayStatusPaid, domain.RefundStatusPending),
			domain.OrderPatch{RefundStatus: refundPtr(domain.RefundStatusRefunded)},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.False(t, IsFinalized(test.snap))
			d := Validate(test.snap, test.patch)
			assert.True(t, d.Allowed, "reason: %s", d.Reason)
		})
	}
}

func TestValidate_IllegalTransition(t *testing.T) {
	snap := codOrder(domain.OrderStatusShipping, domain.PayStatusUnpaid)

	d := Validate(snap, domain.OrderPatch{Status: statusPtr(domain.OrderStatusConfirmed)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonIllegalTransition, d.Reason)
}

func TestValidate_MalformedInputFailsClosed(t *testing.T) {
	snap := codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid)

	bogus := domain.OrderStatus("processing")
	d := Validate(snap, domain.OrderPatch{Status: &bogus})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonIllegalTransition, d.Reason)

	bogusPay := domain.PayStatus("partial")
	d = Validate(snap, domain.OrderPatch{PayStatus: &bogusPay})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonIllegalTransition, d.Reason)

	// Corrupt snapshot is never silently accepted either.
	corrupt := snap
	corrupt.Status = "fake"
	d = Validate(corrupt, domain.OrderPatch{PayStatus: payPtr(domain.PayStatusPaid)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonIllegalTransition, d.Reason)
}

func TestValidate_CodPaidBeforeDelivery(t *testing.T) {
	// Cash is collected at or after delivery, never earlier.
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipping,
	} {
		snap := codOrder(status, domain.PayStatusUnpaid)
		d := Validate(snap, domain.OrderPatch{PayStatus: payPtr(domain.PayStatusPaid)})
		assert.False(t, d.Allowed, "status %s", status)
		assert.Equal(t, ReasonCodPaidBeforeDelivery, d.Reason)
	}

	// Effective status counts, not the stored one: confirming and paying in
	// the same update still lands pre-delivery.
	snap := codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid)
	d := Validate(snap, domain.OrderPatch{
		Status:    statusPtr(domain.OrderStatusConfirmed),
		PayStatus: payPtr(domain.PayStatusPaid),
	})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonCodPaidBeforeDelivery, d.Reason)

	// Delivering and collecting in one update is fine.
	snap = codOrder(domain.OrderStatusShipping, domain.PayStatusUnpaid)
	d = Validate(snap, domain.OrderPatch{
		Status:    statusPtr(domain.OrderStatusDelivered),
		PayStatus: payPtr(domain.PayStatusPaid),
	})
	assert.True(t, d.Allowed, "reason: %s", d.Reason)
}

func TestValidate_OnlineMustStayPaid(t *testing.T) {
	snap := onlineOrder(domain.OrderStatusShipping, domain.PayStatusPaid, domain.RefundStatusNotApplicable)

	d := Validate(snap, domain.OrderPatch{PayStatus: payPtr(domain.PayStatusUnpaid)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOnlineMustStayPaid, d.Reason)
}

func TestValidate_RefundStatusRequiredOnCancel(t *testing.T) {
	// Cancelling a paid online order without touching refundStatus leaves
	// the customer's money in limbo.
	snap := onlineOrder(domain.OrderStatusShipping, domain.PayStatusPaid, domain.RefundStatusNotApplicable)

	d := Validate(snap, domain.OrderPatch{Status: statusPtr(domain.OrderStatusCancelled)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRefundStatusRequired, d.Reason)

	// Same cancel with refund bookkeeping is accepted.
	d = Validate(snap, domain.OrderPatch{
		Status:       statusPtr(domain.OrderStatusCancelled),
		RefundStatus: refundPtr(domain.RefundStatusPending),
	})
	assert.True(t, d.Allowed, "reason: %s", d.Reason)
	assert.Equal(t, domain.OrderStatusCancelled, *d.Changed.Status)
	assert.Equal(t, domain.RefundStatusPending, *d.Changed.RefundStatus)
}

func TestValidate_PendingRefundLock(t *testing.T) {
	snap := onlineOrder(domain.OrderStatusCancelled, domain.PayStatusPaid, domain.RefundStatusPending)

	// Anything outside the refund fields is frozen. The lock wins over the
	// transition check, so the reason is the lock, not IllegalTransition.
	d := Validate(snap, domain.OrderPatch{Status: statusPtr(domain.OrderStatusDelivered)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPendingRefundLocked, d.Reason)

	d = Validate(snap, domain.OrderPatch{PayStatus: payPtr(domain.PayStatusUnpaid)})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPendingRefundLocked, d.Reason)

	// Refund fields themselves may move, together with the proof.
	d = Validate(snap, domain.OrderPatch{
		RefundStatus: refundPtr(domain.RefundStatusRefunded),
		RefundProof:  strPtr("https://cdn.example.com/proof.webp"),
	})
	assert.True(t, d.Allowed, "reason: %s", d.Reason)
	assert.Equal(t, domain.RefundStatusRefunded, *d.Changed.RefundStatus)
	assert.Equal(t, "https://cdn.example.com/proof.webp", *d.Changed.RefundProof)
}

func TestValidate_AcceptedDiffKeepsOnlyChangedFields(t *testing.T) {
	snap := codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid)

	d := Validate(snap, domain.OrderPatch{
		Status:       statusPtr(domain.OrderStatusConfirmed),
		PayStatus:    payPtr(domain.PayStatusUnpaid),              // same as stored
		RefundStatus: refundPtr(domain.RefundStatusNotApplicable), // same as stored
	})
	assert.True(t, d.Allowed)
	assert.False(t, d.NoOp)
	assert.Equal(t, domain.OrderStatusConfirmed, *d.Changed.Status)
	assert.Nil(t, d.Changed.PayStatus)
	assert.Nil(t, d.Changed.RefundStatus)
}

// The end-to-end scenarios as a single table.
func TestValidate_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		patch   domain.OrderPatch
		allowed bool
		reason  RejectReason
	}{
		{
			name:    "cod pending confirm",
			snap:    codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid),
			patch:   domain.OrderPatch{Status: statusPtr(domain.OrderStatusConfirmed)},
			allowed: true,
		},
		{
			name: "cod confirm and pay early",
			snap: codOrder(domain.OrderStatusPending, domain.PayStatusUnpaid),
			patch: domain.OrderPatch{
				Status:    statusPtr(domain.OrderStatusConfirmed),
				PayStatus: payPtr(domain.PayStatusPaid),
			},
			allowed: false,
			reason:  ReasonCodPaidBeforeDelivery,
		},
		{
			name:    "online cancel without refund",
			snap:    onlineOrder(domain.OrderStatusShipping, domain.PayStatusPaid, domain.RefundStatusNotApplicable),
			patch:   domain.OrderPatch{Status: statusPtr(domain.OrderStatusCancelled)},
			allowed: false,
			reason:  ReasonRefundStatusRequired,
		},
		{
			name: "online cancel with pending refund",
			snap: onlineOrder(domain.OrderStatusShipping, domain.PayStatusPaid, domain.RefundStatusNotApplicable),
			patch: domain.OrderPatch{
				Status:       statusPtr(domain.OrderStatusCancelled),
				RefundStatus: refundPtr(domain.RefundStatusPending),
			},
			allowed: true,
		},
		{
			name: "complete refund with proof",
			snap: onlineOrder(domain.OrderStatusCancelled, domain.PayStatusPaid, domain.RefundStatusPending),
			patch: domain.OrderPatch{
				RefundStatus: refundPtr(domain.RefundStatusRefunded),
				RefundProof:  strPtr("https://cdn.example.com/proof.png"),
			},
			allowed: true,
		},
		{
			name:    "locked order cannot be delivered",
			snap:    onlineOrder(domain.OrderStatusCancelled, domain.PayStatusPaid, domain.RefundStatusPending),
			patch:   domain.OrderPatch{Status: statusPtr(domain.OrderStatusDelivered)},
			allowed: false,
			reason:  ReasonPendingRefundLocked,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := Validate(test.snap, test.patch)
			assert.Equal(t, test.allowed, d.Allowed)
			if !test.allowed {
				assert.Equal(t, test.reason, d.Reason)
			}
		})
	}
}

func TestRejectReason_Error(t *testing.T) {
	assert.Contains(t, ReasonFinalizedOrder.Error(), "FINALIZED_ORDER")
}
