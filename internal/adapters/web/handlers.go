package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sample-logistics/internal/app"
	"sample-logistics/internal/metrics"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       *zap.Logger
}

// Options configures NewHandler. Metrics and Log may be nil.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	Metrics        *metrics.Metrics
	Log            *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:       svc,
		jwtSecret: opts.JWTSecret,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log, opts.Metrics))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Get("/api/schemas/{name}", h.apiSchema)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Dispatches
		r.Post("/api/dispatches", h.apiCreateDispatch)
		r.Get("/api/dispatches", h.apiListDispatches)
		r.Get("/api/dispatches/{id}", h.apiGetDispatch)
		r.Patch("/api/dispatches/{id}", h.apiUpdateDispatch)
		r.Post("/api/dispatches/{id}/receive", h.apiReceiveDispatch)
		r.Get("/api/dispatches/{id}/samples", h.apiDispatchSamples)

		// Ledger
		r.Get("/api/warehouses", h.apiListWarehouses)
		r.Get("/api/warehouses/{id}/showrooms", h.apiWarehouseShowrooms)
		r.Get("/api/warehouses/{id}/samples", h.apiWarehouseSamples)
		r.Get("/api/warehouses/{id}/samples.xlsx", h.apiWarehouseSamplesExport)
		r.Get("/api/showrooms/{id}/samples", h.apiShowroomSamples)
		r.Get("/api/stores/{id}/samples", h.apiStoreSamples)
		r.Get("/api/samples/{id}", h.apiGetSample)
		r.Post("/api/samples/{id}/transfer", h.apiTransferSample)

		// Stock
		r.Get("/api/stores/{id}/product-units", h.apiStoreProductUnits)
		r.Post("/api/product-units/{id}/adjust", h.apiAdjustStock)
		r.Put("/api/product-units/{id}/stock", h.apiSetStock)
	})

	return r
}

// health reports liveness. It does not touch the database.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// pathID parses the {id} URL parameter. It writes a 400 and returns false when
// the parameter is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter. Absent means 0.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// mustActor returns the actor placed in the context by RequireAuth.
func mustActor(r *http.Request) app.Actor {
	actor, _ := actorFromContext(r.Context())
	return actor
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
