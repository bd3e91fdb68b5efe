package vehicle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/mcreate/pkg/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Fetcher retrieves the raw vehicles-by-model document.
type Fetcher interface {
	VehiclesByModel(ctx context.Context, modelYear, manufacturer, model string) ([]byte, error)
}

// Lookup fetches and reshapes vehicle lists.
type Lookup struct {
	fetcher Fetcher
	logger  logger.Logger
}

// NewLookup creates a Lookup backed by fetcher.
func NewLookup(fetcher Fetcher, l logger.Logger) *Lookup {
	if l == nil {
		l = logger.Named("vehicle")
	}
	return &Lookup{fetcher: fetcher, logger: l}
}

// Find normalizes q, calls the upstream and reshapes the result.
func (lk *Lookup) Find(ctx context.Context, q Query) (List, error) {
	if !q.Complete() {
		return List{}, ErrIncompleteQuery
	}
	n := q.Normalize()
	body, err := lk.fetcher.VehiclesByModel(ctx, n.ModelYear, n.Manufacturer, n.Model)
	if err != nil {
		lk.logger.Warn(ctx, "error fetching vehicles data",
			logger.String("modelYear", n.ModelYear),
			logger.String("manufacturer", n.Manufacturer),
			logger.String("model", n.Model),
			logger.Error(err),
		)
		return List{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	doc, err := Reshape(body)
	if err != nil {
		lk.logger.Warn(ctx, "unexpected vehicles payload", logger.Error(err))
		return List{}, err
	}
	return List{doc: doc}, nil
}

// Reshape drops the top-level Message key and renames VehicleDescription to
// Description on every row, keeping row order and all other keys.
func Reshape(body []byte) ([]byte, error) {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}
	results := gjson.GetBytes(body, "Results")
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: Results is not an array", ErrMalformed)
	}

	doc, err := sjson.DeleteBytes(body, "Message")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i, row := range results.Array() {
		if !row.IsObject() {
			continue
		}
		prefix := "Results." + strconv.Itoa(i)
		desc := row.Get("VehicleDescription")
		if !desc.Exists() {
			continue
		}
		if doc, err = sjson.SetRawBytes(doc, prefix+".Description", []byte(desc.Raw)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if doc, err = sjson.DeleteBytes(doc, prefix+".VehicleDescription"); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	return doc, nil
}
