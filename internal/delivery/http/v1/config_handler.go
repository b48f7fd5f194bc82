package v1

import (
	"net/http"
	"time"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/orderrules"
	"bazarhub-backend/pkg/cache"
	"bazarhub-backend/pkg/utils"
)

type ConfigHandler struct {
	cache cache.CacheService
}

func NewConfigHandler(cache cache.CacheService) *ConfigHandler {
	return &ConfigHandler{cache: cache}
}

// rejectionMessages maps every stable rejection code to its user-facing
// message, so the dashboard renders explanations without hardcoding them.
var rejectionMessages = map[orderrules.RejectReason]string{
	orderrules.ReasonFinalizedOrder:        "The order is finalized and can no longer be changed.",
	orderrules.ReasonIllegalTransition:     "The requested status change is not allowed from the order's current status.",
	orderrules.ReasonCodPaidBeforeDelivery: "A cash-on-delivery order cannot be marked paid before it is delivered.",
	orderrules.ReasonOnlineMustStayPaid:    "An online-paid order cannot be marked unpaid unless it is cancelled.",
	orderrules.ReasonRefundStatusRequired:  "Cancelling a paid online order requires a refund status.",
	orderrules.ReasonPendingRefundLocked:   "The order is locked while a refund is pending.",
}

// GetEnums serves every enumeration the admin dashboard needs to render
// forms and status badges, including the transition table itself.
func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	const cacheKey = "system:config:enums"

	if val, found := h.cache.Get(cacheKey); found {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		utils.WriteJSON(w, http.StatusOK, val)
		return
	}

	transitions := map[domain.OrderStatus][]domain.OrderStatus{}
	for _, s := range domain.OrderStatuses {
		transitions[s] = orderrules.NextStatuses(s)
	}

	response := map[string]interface{}{
		"orderStatuses":      domain.OrderStatuses,
		"payStatuses":        domain.PayStatuses,
		"refundStatuses":     domain.RefundStatuses,
		"paymentMethods":     domain.PaymentMethods,
		"importBillStatuses": []domain.ImportBillStatus{domain.ImportBillDraft, domain.ImportBillReceived, domain.ImportBillCancelled},
		"transitions":        transitions,
		"rejectionCodes":     rejectionMessages,
	}

	h.cache.Set(cacheKey, response, 1*time.Hour)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	utils.WriteJSON(w, http.StatusOK, response)
}
