package api

import (
	"net/http"

	"github.com/okian/mcreate/internal/domain/vehicle"
)

// VehiclesHandler handles the GET vehicle lookups.
type VehiclesHandler struct {
	deps       Dependencies
	bestEffort bestEffortFunc
}

// NewVehiclesHandler creates a new vehicles handler.
func NewVehiclesHandler(deps Dependencies, bestEffort bestEffortFunc) *VehiclesHandler {
	return &VehiclesHandler{deps: deps, bestEffort: bestEffort}
}

// HandleGetVehicles handles GET /vehicles/{modelYear}/{manufacturer}/{model}.
// withRating=true switches to the crash rating variant.
func (h *VehiclesHandler) HandleGetVehicles(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_vehicles"
	q := vehicle.Query{
		ModelYear:    r.PathValue("modelYear"),
		Manufacturer: r.PathValue("manufacturer"),
		Model:        r.PathValue("model"),
	}

	if wantsRating(r) {
		ratings, err := h.deps.VehiclesWithRatings(r.Context(), q)
		if err != nil {
			h.bestEffort(w, r, "vehicles_rating", reasonUpstream, WrapKind(op, ErrLookup, err))
			return
		}
		writeJSON(w, http.StatusOK, ratings)
		return
	}

	list, err := h.deps.Vehicles(r.Context(), q)
	if err != nil {
		h.bestEffort(w, r, "vehicles", reasonUpstream, WrapKind(op, ErrLookup, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// wantsRating matches only a single withRating value equal to "true".
func wantsRating(r *http.Request) bool {
	vals := r.URL.Query()["withRating"]
	return len(vals) == 1 && vals[0] == "true"
}
