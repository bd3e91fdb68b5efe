// Package vehicle looks up vehicles by year, make and model and reshapes the
// upstream rows for callers.
package vehicle

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// Query identifies a model line. Values are free-form and used verbatim
// apart from space encoding.
type Query struct {
	ModelYear    string
	Manufacturer string
	Model        string
}

// Complete reports whether every field is set.
func (q Query) Complete() bool {
	return q.ModelYear != "" && q.Manufacturer != "" && q.Model != ""
}

// Normalize percent-encodes spaces in every field. No other character changes.
func (q Query) Normalize() Query {
	return Query{
		ModelYear:    encodeSpaces(q.ModelYear),
		Manufacturer: encodeSpaces(q.Manufacturer),
		Model:        encodeSpaces(q.Model),
	}
}

func encodeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

// ID is the upstream's opaque vehicle identifier, kept as its raw JSON token
// so numbers and strings round-trip unchanged.
type ID string

// Valid reports whether the id was present and not null.
func (id ID) Valid() bool {
	return id != "" && id != "null"
}

// String returns the id as it appears in an upstream path.
func (id ID) String() string {
	if !id.Valid() {
		return ""
	}
	return gjson.Parse(string(id)).String()
}

// MarshalJSON writes the raw token back.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Valid() {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

// UnmarshalJSON keeps the raw token.
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ID(bytes.TrimSpace(b))
	return nil
}

// List is a reshaped upstream vehicle document: {Count, Results:[...]} with
// Message removed and every row's VehicleDescription renamed to Description.
// Unknown upstream keys pass through untouched.
type List struct {
	doc []byte
}

// Count is the upstream's own Count value.
func (l List) Count() int {
	return int(gjson.GetBytes(l.doc, "Count").Int())
}

// Len is the number of result rows.
func (l List) Len() int {
	return int(gjson.GetBytes(l.doc, "Results.#").Int())
}

// IDs returns the VehicleId of every row in order. Rows without an id yield
// an invalid ID so positions stay aligned with Results.
func (l List) IDs() []ID {
	rows := gjson.GetBytes(l.doc, "Results").Array()
	ids := make([]ID, len(rows))
	for i, row := range rows {
		if v := row.Get("VehicleId"); v.Exists() {
			ids[i] = ID(v.Raw)
		}
	}
	return ids
}

// MarshalJSON returns the reshaped document.
func (l List) MarshalJSON() ([]byte, error) {
	if len(l.doc) == 0 {
		return []byte(`{"Count":0,"Results":[]}`), nil
	}
	return l.doc, nil
}
