package v1

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

type AdminCatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewAdminCatalogHandler(uc *usecase.CatalogUsecase) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalogUC: uc}
}

// --- Categories ---

func (h *AdminCatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	// Admin sees inactive categories too.
	cats, err := h.catalogUC.GetCategories(r.Context(), nil)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if category.Name == "" {
		utils.WriteError(w, http.StatusBadRequest, "Category name required")
		return
	}

	if err := h.catalogUC.CreateCategory(r.Context(), &category); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, category)
}

func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	category.ID = r.PathValue("id")

	if err := h.catalogUC.UpdateCategory(r.Context(), &category); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, category)
}

func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// --- Products ---

func (h *AdminCatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	filter := domain.ProductFilter{
		CategorySlug: r.URL.Query().Get("category"),
		Query:        r.URL.Query().Get("q"),
		Sort:         r.URL.Query().Get("sort"),
		Limit:        limit,
		Offset:       offset,
	}
	if val := r.URL.Query().Get("is_active"); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			filter.IsActive = &boolVal
		}
	}

	products, total, err := h.catalogUC.GetProducts(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
	})
}

func (h *AdminCatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProductByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if product.Name == "" || product.BasePrice < 0 {
		utils.WriteError(w, http.StatusBadRequest, "Product name and a non-negative base price are required")
		return
	}

	if err := h.catalogUC.CreateProduct(r.Context(), &product); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, product)
}

func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	product.ID = r.PathValue("id")

	if err := h.catalogUC.UpdateProduct(r.Context(), &product); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminCatalogHandler) UpdateProductStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.catalogUC.SetProductStatus(r.Context(), r.PathValue("id"), req.IsActive); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product status updated"})
}

func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// --- Inventory ---

func (h *AdminCatalogHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.catalogUC.AdjustStock(r.Context(), req.VariantID, req.Quantity, user.ID); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Stock adjusted"})
}

func (h *AdminCatalogHandler) GetInventoryLogs(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, total, err := h.catalogUC.GetInventoryLogs(r.Context(), productID, limit, offset)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
	})
}
