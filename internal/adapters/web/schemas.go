package web

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"

	"sample-logistics/internal/app"
)

// requestSchemas are the request bodies clients can fetch a JSON Schema for.
var requestSchemas = map[string]any{
	"create-dispatch": app.CreateDispatchRequest{},
	"update-shipping": app.UpdateShippingRequest{},
	"transfer":        app.TransferRequest{},
}

func generateSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// apiSchema handles GET /api/schemas/{name}.
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := requestSchemas[name]
	if !ok {
		names := make([]string, 0, len(requestSchemas))
		for n := range requestSchemas {
			names = append(names, n)
		}
		sort.Strings(names)
		writeError(w, r, "unknown schema "+name+"; available: "+strings.Join(names, ", "), "NOT_FOUND", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	_ = json.NewEncoder(w).Encode(generateSchema(v))
}
