package api

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/vehicle_query.json
var vehicleQuerySchema []byte

var (
	compiledOnce   sync.Once
	compiledSchema *gojsonschema.Schema
	compileErr     error
)

func querySchema() (*gojsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(vehicleQuerySchema))
	})
	return compiledSchema, compileErr
}

// validateQueryBody checks body against the vehicle query schema. A body
// that is not JSON at all is reported as ErrMalformedBody.
func validateQueryBody(body []byte) error {
	schema, err := querySchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(msgs, "; "))
}
