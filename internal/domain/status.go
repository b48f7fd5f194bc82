package domain

// OrderStatus is the fulfilment state of an order. The legal moves between
// statuses live in the orderrules package; this file only defines the
// enumerations themselves.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipping,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PayStatus is the payment state of an order.
type PayStatus string

const (
	PayStatusUnpaid PayStatus = "unpaid"
	PayStatusPaid   PayStatus = "paid"
)

func (s PayStatus) String() string {
	return string(s)
}

func (s PayStatus) IsValid() bool {
	return s == PayStatusUnpaid || s == PayStatusPaid
}

// RefundStatus tracks refund bookkeeping for paid online orders.
// Not applicable is the default for everything else.
type RefundStatus string

const (
	RefundStatusNotApplicable RefundStatus = "not_applicable"
	RefundStatusPending       RefundStatus = "pending_refund"
	RefundStatusRefunded      RefundStatus = "refunded"
)

func (s RefundStatus) String() string {
	return string(s)
}

func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusNotApplicable, RefundStatusPending, RefundStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is fixed at checkout and never changes afterwards.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// Enumeration lists, in display order, for the enums endpoint and for
// exhaustive iteration.
var (
	OrderStatuses = []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusShipping,
		OrderStatusDelivered, OrderStatusCancelled,
	}
	PayStatuses    = []PayStatus{PayStatusUnpaid, PayStatusPaid}
	RefundStatuses = []RefundStatus{RefundStatusNotApplicable, RefundStatusPending, RefundStatusRefunded}
	PaymentMethods = []PaymentMethod{PaymentMethodCOD, PaymentMethodOnline}
)
