package web

import (
	"fmt"
	"net/http"
	"strconv"

	"sample-logistics/internal/app"
	"sample-logistics/internal/core"
)

type sampleListResponse struct {
	Samples []core.Sample `json:"samples"`
	Total   int           `json:"total"`
}

// listSamples runs filter through the application service and writes the result.
func (h *Handler) listSamples(w http.ResponseWriter, r *http.Request, filter core.SampleFilter) {
	result, err := h.svc.ListSamples(r.Context(), mustActor(r), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list := result.Samples
	if list == nil {
		list = []core.Sample{}
	}
	writeJSON(w, sampleListResponse{Samples: list, Total: result.Total})
}

// apiWarehouseShowrooms handles GET /api/warehouses/{id}/showrooms.
func (h *Handler) apiWarehouseShowrooms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListShowrooms(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type response struct {
		Warehouse *core.Warehouse `json:"warehouse"`
		Showrooms []core.Showroom `json:"showrooms"`
	}
	showrooms := result.Showrooms
	if showrooms == nil {
		showrooms = []core.Showroom{}
	}
	writeJSON(w, response{Warehouse: result.Warehouse, Showrooms: showrooms})
}

// apiWarehouseSamples handles GET /api/warehouses/{id}/samples?on=warehouse|showroom.
// Without on, entries at the warehouse and at all of its showrooms are listed.
func (h *Handler) apiWarehouseSamples(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	filter := core.SampleFilter{WarehouseID: id}
	if on := r.URL.Query().Get("on"); on != "" {
		kind, err := core.ParseLocationKind(on)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		filter.Kind = kind
	}
	h.listSamples(w, r, filter)
}

// apiWarehouseSamplesExport handles GET /api/warehouses/{id}/samples.xlsx.
func (h *Handler) apiWarehouseSamplesExport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ExportWarehouseSamples(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	_, _ = w.Write(result.Content)
}

// apiShowroomSamples handles GET /api/showrooms/{id}/samples.
func (h *Handler) apiShowroomSamples(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.listSamples(w, r, core.SampleFilter{ShowroomID: id})
}

// apiStoreSamples handles GET /api/stores/{id}/samples: every unit the store
// currently has out on display or in storage.
func (h *Handler) apiStoreSamples(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.listSamples(w, r, core.SampleFilter{StoreID: id})
}

// apiGetSample handles GET /api/samples/{id}.
func (h *Handler) apiGetSample(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSample(r.Context(), mustActor(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sample)
}

// apiTransferSample handles POST /api/samples/{id}/transfer.
func (h *Handler) apiTransferSample(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SampleID = id
	result, err := h.svc.TransferSample(r.Context(), mustActor(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Transfer)
}
