package probe

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var crashRecordKeys = map[string]bool{
	"VehicleId":   true,
	"CrashRating": true,
	"Description": true,
}

// verifyResponse checks the invariants every answer of mode must hold and
// returns the reported Count.
func verifyResponse(mode Mode, status int, body []byte) (int64, error) {
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrShape, status)
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("%w: body is not JSON", ErrShape)
	}
	doc := gjson.ParseBytes(body)
	count := doc.Get("Count")
	results := doc.Get("Results")
	if count.Type != gjson.Number {
		return 0, fmt.Errorf("%w: Count is not a number", ErrShape)
	}
	if !results.IsArray() {
		return 0, fmt.Errorf("%w: Results is not an array", ErrShape)
	}

	switch mode {
	case ModeRating:
		return count.Int(), verifyRatings(count.Int(), results)
	default:
		return count.Int(), verifyVehicles(doc, results)
	}
}

func verifyVehicles(doc, results gjson.Result) error {
	if doc.Get("Message").Exists() {
		return fmt.Errorf("%w: Message was not removed", ErrShape)
	}
	var err error
	results.ForEach(func(i, row gjson.Result) bool {
		if row.Get("VehicleDescription").Exists() {
			err = fmt.Errorf("%w: row %d still has VehicleDescription", ErrShape, i.Int())
			return false
		}
		return true
	})
	return err
}

func verifyRatings(count int64, results gjson.Result) error {
	rows := results.Array()
	if count != int64(len(rows)) {
		return fmt.Errorf("%w: Count %d but %d results", ErrShape, count, len(rows))
	}
	for i, row := range rows {
		if !row.IsObject() {
			return fmt.Errorf("%w: rating %d is not an object", ErrShape, i)
		}
		var err error
		row.ForEach(func(k, _ gjson.Result) bool {
			if !crashRecordKeys[k.String()] {
				err = fmt.Errorf("%w: rating %d has unexpected key %s", ErrShape, i, k.String())
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}
