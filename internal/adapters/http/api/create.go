package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const maxBodyBytes = 1 << 20

var queryFields = [...]string{"modelYear", "manufacturer", "model"}

// CreateHandler handles POST /vehicles, a lookup whose query arrives in
// the request body.
type CreateHandler struct {
	deps       Dependencies
	bestEffort bestEffortFunc
}

// NewCreateHandler creates a new create handler.
func NewCreateHandler(deps Dependencies, bestEffort bestEffortFunc) *CreateHandler {
	return &CreateHandler{deps: deps, bestEffort: bestEffort}
}

// HandlePostVehicles handles POST /vehicles. Bodies may be JSON or form
// encoded. Missing fields end the request with the fallback body before
// any upstream call.
func (h *CreateHandler) HandlePostVehicles(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vehicles"
	const endpoint = "vehicles_create"

	q, err := readQuery(w, r)
	if err != nil {
		reason := reasonMissingBody
		if errors.Is(err, ErrMalformedBody) {
			reason = reasonMalformed
		}
		h.bestEffort(w, r, endpoint, reason, WrapKind(op, ErrBadRequest, err))
		return
	}

	list, err := h.deps.Vehicles(r.Context(), q)
	if err != nil {
		h.bestEffort(w, r, endpoint, reasonUpstream, WrapKind(op, ErrLookup, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func readQuery(w http.ResponseWriter, r *http.Request) (vehicle.Query, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return vehicle.Query{}, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if isForm(r.Header.Get("Content-Type")) {
		if raw, err = formToJSON(raw); err != nil {
			return vehicle.Query{}, err
		}
	}
	if len(raw) == 0 {
		return vehicle.Query{}, fmt.Errorf("%w: empty body", ErrMalformedBody)
	}
	if err := validateQueryBody(raw); err != nil {
		return vehicle.Query{}, err
	}

	vals := make([]string, len(queryFields))
	for i, f := range queryFields {
		v := gjson.GetBytes(raw, f)
		if v.Type == gjson.Number && v.Num == 0 {
			return vehicle.Query{}, fmt.Errorf("%w: %s is zero", ErrMissingFields, f)
		}
		vals[i] = v.String()
	}
	return vehicle.Query{ModelYear: vals[0], Manufacturer: vals[1], Model: vals[2]}, nil
}

func isForm(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// formToJSON copies the query fields of a form body into a JSON object.
func formToJSON(raw []byte) ([]byte, error) {
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	doc := []byte(`{}`)
	for _, f := range queryFields {
		if !form.Has(f) {
			continue
		}
		if doc, err = sjson.SetBytes(doc, f, form.Get(f)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
	}
	return doc, nil
}
