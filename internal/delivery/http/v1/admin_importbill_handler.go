package v1

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

type AdminImportBillHandler struct {
	billUC *usecase.ImportBillUsecase
}

func NewAdminImportBillHandler(uc *usecase.ImportBillUsecase) *AdminImportBillHandler {
	return &AdminImportBillHandler{billUC: uc}
}

func (h *AdminImportBillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateImportBillReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bill, err := h.billUC.Create(r.Context(), req, user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, bill)
}

func (h *AdminImportBillHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bills, total, err := h.billUC.GetAll(r.Context(), domain.ImportBillFilter{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bills": bills,
		"total": total,
	})
}

func (h *AdminImportBillHandler) Get(w http.ResponseWriter, r *http.Request) {
	bill, err := h.billUC.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *AdminImportBillHandler) Receive(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bill, err := h.billUC.Receive(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeBillError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

func (h *AdminImportBillHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bill, err := h.billUC.Cancel(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeBillError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bill)
}

// writeBillError distinguishes lifecycle conflicts (bill already left draft)
// from lookups and everything else.
func writeBillError(w http.ResponseWriter, err error) {
	if strings.Contains(err.Error(), "only draft bills") {
		utils.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	writeRepoError(w, err)
}
