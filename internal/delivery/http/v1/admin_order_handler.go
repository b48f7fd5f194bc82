package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/orderrules"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := domain.OrderFilter{
		Page:          page,
		Limit:         limit,
		Status:        r.URL.Query().Get("status"),
		PayStatus:     r.URL.Query().Get("pay_status"),
		PaymentMethod: r.URL.Query().Get("payment_method"),
		Search:        r.URL.Query().Get("search"),
	}

	orders, total, err := h.orderUC.GetAllOrders(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := h.orderUC.GetOrder(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// PatchOrder applies a partial status update. Updates that break an order
// lifecycle rule come back as 409 with a stable machine-readable code; a
// patch that changes nothing is a 200 without any write.
func (h *AdminOrderHandler) PatchOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch domain.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	order, err := h.orderUC.UpdateOrder(r.Context(), id, patch, user.ID)
	if err != nil {
		var reason orderrules.RejectReason
		if errors.As(err, &reason) {
			utils.WriteRejection(w, string(reason))
			return
		}
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// GetTransitions returns the target statuses currently reachable from the
// order's status.
func (h *AdminOrderHandler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	next, err := h.orderUC.GetTransitions(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"transitions": next})
}

func (h *AdminOrderHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// 404 for unknown orders instead of an empty history list.
	if _, err := h.orderUC.GetOrder(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}

	history, err := h.orderUC.GetOrderHistory(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}
