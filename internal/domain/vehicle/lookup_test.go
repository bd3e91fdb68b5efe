package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/okian/mcreate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

type mockFetcher struct {
	body  []byte
	err   error
	calls [][3]string
}

func (m *mockFetcher) VehiclesByModel(_ context.Context, y, mk, md string) ([]byte, error) {
	m.calls = append(m.calls, [3]string{y, mk, md})
	return m.body, m.err
}

const audiDoc = `{"Count":2,"Message":"Results returned successfully","Results":[` +
	`{"VehicleDescription":"2015 Audi A3 4 DR AWD","VehicleId":9403},` +
	`{"VehicleDescription":"2015 Audi A3 C AWD","VehicleId":9408}]}`

func TestQueryNormalize(t *testing.T) {
	Convey("Given a query with spaces", t, func() {
		q := Query{ModelYear: "2015", Manufacturer: "Land Rover", Model: "Range Rover Sport"}

		Convey("Then every space is percent-encoded and nothing else changes", func() {
			n := q.Normalize()
			So(n.ModelYear, ShouldEqual, "2015")
			So(n.Manufacturer, ShouldEqual, "Land%20Rover")
			So(n.Model, ShouldEqual, "Range%20Rover%20Sport")
			So(strings.Contains(n.Manufacturer+n.Model, " "), ShouldBeFalse)
		})

		Convey("Then other reserved characters are left alone", func() {
			n := Query{ModelYear: "2015", Manufacturer: "A&B", Model: "X/Y"}.Normalize()
			So(n.Manufacturer, ShouldEqual, "A&B")
			So(n.Model, ShouldEqual, "X/Y")
		})
	})
}

func TestLookupFind(t *testing.T) {
	_ = logger.Init()

	Convey("Given a lookup over a mock upstream", t, func() {
		f := &mockFetcher{body: []byte(audiDoc)}
		lk := NewLookup(f, nil)
		ctx := context.Background()

		Convey("When finding a model line", func() {
			list, err := lk.Find(ctx, Query{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"})
			So(err, ShouldBeNil)
			out, _ := json.Marshal(list)
			doc := gjson.ParseBytes(out)

			Convey("Then Message is gone and descriptions are renamed in order", func() {
				So(doc.Get("Message").Exists(), ShouldBeFalse)
				So(doc.Get("Count").Int(), ShouldEqual, int64(2))
				So(doc.Get("Results.#").Int(), ShouldEqual, int64(2))
				So(doc.Get("Results.0.Description").String(), ShouldEqual, "2015 Audi A3 4 DR AWD")
				So(doc.Get("Results.1.Description").String(), ShouldEqual, "2015 Audi A3 C AWD")
				So(strings.Contains(string(out), "VehicleDescription"), ShouldBeFalse)
				So(doc.Get("Results.1.VehicleId").Int(), ShouldEqual, int64(9408))
			})

			Convey("Then the ids are exposed in row order", func() {
				ids := list.IDs()
				So(len(ids), ShouldEqual, 2)
				So(ids[0].String(), ShouldEqual, "9403")
				So(ids[1].String(), ShouldEqual, "9408")
			})
		})

		Convey("When the query carries spaces", func() {
			_, _ = lk.Find(ctx, Query{ModelYear: "2015", Manufacturer: "Land Rover", Model: "LR4"})

			Convey("Then the upstream sees them encoded", func() {
				So(len(f.calls), ShouldEqual, 1)
				So(f.calls[0][1], ShouldEqual, "Land%20Rover")
			})
		})

		Convey("When a field is missing", func() {
			_, err := lk.Find(ctx, Query{ModelYear: "2015", Manufacturer: "Audi"})

			Convey("Then the upstream is not called", func() {
				So(errors.Is(err, ErrIncompleteQuery), ShouldBeTrue)
				So(len(f.calls), ShouldEqual, 0)
			})
		})

		Convey("When the upstream fails", func() {
			f.err = errors.New("boom")
			_, err := lk.Find(ctx, Query{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"})

			Convey("Then an upstream error is returned", func() {
				So(errors.Is(err, ErrUpstream), ShouldBeTrue)
			})
		})

		Convey("When Results is not an array", func() {
			f.body = []byte(`{"Count":0,"Message":"x","Results":"none"}`)
			_, err := lk.Find(ctx, Query{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"})

			Convey("Then the payload is rejected", func() {
				So(errors.Is(err, ErrMalformed), ShouldBeTrue)
			})
		})
	})
}

func TestReshapeKeepsUnknownKeys(t *testing.T) {
	Convey("Given rows with extra upstream fields", t, func() {
		out, err := Reshape([]byte(`{"Count":1,"Results":[{"VehicleId":"7","Extra":{"a":1}}]}`))

		Convey("Then they pass through untouched", func() {
			So(err, ShouldBeNil)
			So(gjson.GetBytes(out, "Results.0.Extra.a").Int(), ShouldEqual, int64(1))
			So(gjson.GetBytes(out, "Results.0.Description").Exists(), ShouldBeFalse)
		})
	})
}

func TestIDJSON(t *testing.T) {
	Convey("Given raw id tokens", t, func() {
		So(ID(`"abc"`).String(), ShouldEqual, "abc")
		So(ID(`9403`).String(), ShouldEqual, "9403")
		So(ID("null").Valid(), ShouldBeFalse)
		b, _ := json.Marshal(ID(`9403`))
		So(string(b), ShouldEqual, "9403")
	})
}
