// Package crash gathers crash ratings for a list of vehicles.
package crash

import (
	"encoding/json"
	"fmt"

	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/tidwall/gjson"
)

// Record is one vehicle's crash rating summary. Values are the upstream's
// raw JSON tokens; absent upstream fields are omitted.
type Record struct {
	VehicleID   vehicle.ID      `json:"VehicleId,omitempty"`
	CrashRating json.RawMessage `json:"CrashRating,omitempty"`
	Description json.RawMessage `json:"Description,omitempty"`
}

// List is the aggregated response. Results is never nil.
type List struct {
	Count   int      `json:"Count"`
	Results []Record `json:"Results"`
}

// NewList builds a List whose Count always matches len(Results).
func NewList(records []Record) List {
	if records == nil {
		records = []Record{}
	}
	return List{Count: len(records), Results: records}
}

// ParseRecord extracts the first result row of a crash rating document.
func ParseRecord(body []byte) (Record, error) {
	if !gjson.ValidBytes(body) {
		return Record{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	results := gjson.GetBytes(body, "Results")
	if !results.IsArray() {
		return Record{}, fmt.Errorf("%w: Results is not an array", ErrMalformed)
	}
	first := results.Get("0")
	if !first.Exists() {
		return Record{}, ErrNoRating
	}
	if !first.IsObject() {
		return Record{}, fmt.Errorf("%w: result row is not an object", ErrMalformed)
	}

	var rec Record
	if v := first.Get("VehicleId"); v.Exists() {
		rec.VehicleID = vehicle.ID(v.Raw)
	}
	if v := first.Get("OverallRating"); v.Exists() {
		rec.CrashRating = json.RawMessage(v.Raw)
	}
	if v := first.Get("VehicleDescription"); v.Exists() {
		rec.Description = json.RawMessage(v.Raw)
	}
	return rec, nil
}
