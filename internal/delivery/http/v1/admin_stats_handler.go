package v1

import (
	"net/http"
	"strconv"
	"time"

	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

type AdminStatsHandler struct {
	statsUC *usecase.StatsUsecase
}

func NewAdminStatsHandler(uc *usecase.StatsUsecase) *AdminStatsHandler {
	return &AdminStatsHandler{statsUC: uc}
}

// dateRange parses start/end query params (YYYY-MM-DD), defaulting to the
// trailing 30 days. End is exclusive and bumped a day so "today" is included.
func dateRange(r *http.Request) (time.Time, time.Time) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now.AddDate(0, 0, 1)

	if s := r.URL.Query().Get("start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if e := r.URL.Query().Get("end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			end = t.AddDate(0, 0, 1)
		}
	}
	return start, end
}

func (h *AdminStatsHandler) GetRevenueKPIs(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	kpis, err := h.statsUC.GetRevenueKPIs(r.Context(), start, end)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, kpis)
}

func (h *AdminStatsHandler) GetDailySales(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sales, err := h.statsUC.GetDailySales(r.Context(), start, end, int32(limit), int32(offset))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"sales": sales})
}

func (h *AdminStatsHandler) GetStatusBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.statsUC.GetStatusBreakdown(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"breakdown": breakdown})
}

func (h *AdminStatsHandler) GetTopSelling(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	top, err := h.statsUC.GetTopSelling(r.Context(), start, end, int32(limit))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"products": top})
}

func (h *AdminStatsHandler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("threshold"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	variants, err := h.statsUC.GetLowStock(r.Context(), int32(threshold), int32(limit))
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"variants": variants})
}
