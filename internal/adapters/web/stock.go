package web

import (
	"net/http"

	"sample-logistics/internal/core"
)

// apiListWarehouses handles GET /api/warehouses.
func (h *Handler) apiListWarehouses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListWarehouses(r.Context(), mustActor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list := result.Warehouses
	if list == nil {
		list = []core.Warehouse{}
	}
	writeJSON(w, map[string]any{"warehouses": list})
}

// apiStoreProductUnits handles GET /api/stores/{id}/product-units.
func (h *Handler) apiStoreProductUnits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListProductUnits(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	units := result.ProductUnits
	if units == nil {
		units = []core.ProductUnit{}
	}
	writeJSON(w, map[string]any{"store": result.Store, "product_units": units})
}

// apiAdjustStock handles POST /api/product-units/{id}/adjust.
func (h *Handler) apiAdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.AdjustStock(r.Context(), mustActor(r), id, req.Delta)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.ProductUnit)
}

// apiSetStock handles PUT /api/product-units/{id}/stock with the counted quantity.
func (h *Handler) apiSetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		writeErrorDetails(w, r, "quantity is required", "VALIDATION_ERROR", http.StatusBadRequest, fieldDetails{Field: "quantity"})
		return
	}
	result, err := h.svc.SetStock(r.Context(), mustActor(r), id, *req.Quantity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.ProductUnit)
}
