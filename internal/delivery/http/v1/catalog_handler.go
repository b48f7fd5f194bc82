package v1

import (
	"net/http"
	"strconv"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/utils"
)

// CatalogHandler serves the public storefront views. Only active products
// and categories are visible here.
type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	active := true
	cats, err := h.catalogUC.GetCategories(r.Context(), &active)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	minPrice, _ := strconv.ParseFloat(r.URL.Query().Get("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(r.URL.Query().Get("max_price"), 64)

	active := true
	filter := domain.ProductFilter{
		CategorySlug: r.URL.Query().Get("category"),
		Query:        r.URL.Query().Get("q"),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Sort:         r.URL.Query().Get("sort"),
		Limit:        limit,
		Offset:       offset,
		IsActive:     &active,
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

func (h *CatalogHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeRepoError(w, err)
		return
	}
	if !product.IsActive {
		utils.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}
