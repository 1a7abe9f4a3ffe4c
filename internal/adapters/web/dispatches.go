package web

import (
	"net/http"
	"strconv"

	"sample-logistics/internal/app"
	"sample-logistics/internal/core"
)

// apiCreateDispatch handles POST /api/dispatches.
func (h *Handler) apiCreateDispatch(w http.ResponseWriter, r *http.Request) {
	var req app.CreateDispatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateDispatch(r.Context(), mustActor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/dispatches/"+strconv.FormatInt(result.Dispatch.ID, 10))
	writeStatusJSON(w, http.StatusCreated, result.Dispatch)
}

// apiListDispatches handles GET /api/dispatches?store_id&warehouse_id&status&in_flight.
func (h *Handler) apiListDispatches(w http.ResponseWriter, r *http.Request) {
	storeID, ok := queryID(w, r, "store_id")
	if !ok {
		return
	}
	warehouseID, ok := queryID(w, r, "warehouse_id")
	if !ok {
		return
	}
	inFlight := false
	if raw := r.URL.Query().Get("in_flight"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, "invalid in_flight "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		inFlight = v
	}

	result, err := h.svc.ListDispatches(r.Context(), mustActor(r), app.ListDispatchesRequest{
		StoreID:     storeID,
		WarehouseID: warehouseID,
		Status:      r.URL.Query().Get("status"),
		InFlight:    inFlight,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	type response struct {
		Dispatches []core.Dispatch `json:"dispatches"`
	}
	list := result.Dispatches
	if list == nil {
		list = []core.Dispatch{}
	}
	writeJSON(w, response{Dispatches: list})
}

// apiGetDispatch handles GET /api/dispatches/{id}.
func (h *Handler) apiGetDispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetDispatch(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Dispatch)
}

// apiUpdateDispatch handles PATCH /api/dispatches/{id}.
func (h *Handler) apiUpdateDispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.UpdateShippingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.UpdateDispatchShipping(r.Context(), mustActor(r), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Dispatch)
}

// apiReceiveDispatch handles POST /api/dispatches/{id}/receive.
func (h *Handler) apiReceiveDispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ReceiveDispatch(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Dispatch)
}

// apiDispatchSamples handles GET /api/dispatches/{id}/samples: the ledger entries
// that still carry this dispatch as their origin.
func (h *Handler) apiDispatchSamples(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor := mustActor(r)
	if _, err := h.svc.GetDispatch(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.listSamples(w, r, core.SampleFilter{DispatchID: id})
}
