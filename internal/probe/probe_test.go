package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/mcreate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeFacade answers like the real service, or breaks one invariant when
// broken is set.
func fakeFacade(broken bool, seen *sync.Map) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	mux.HandleFunc("GET /vehicles/{y}/{mk}/{md}", func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.PathValue("mk"), true)
		if r.URL.Query().Get("withRating") == "true" {
			if broken {
				_, _ = w.Write([]byte(`{"Count":2,"Results":[{"VehicleId":1}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"Count":1,"Results":[{"VehicleId":1,"CrashRating":"5","Description":"x"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"Count":1,"Results":[{"VehicleId":1,"Description":"x"}]}`))
	})
	mux.HandleFunc("POST /vehicles", func(w http.ResponseWriter, r *http.Request) {
		var t Target
		_ = json.NewDecoder(r.Body).Decode(&t)
		seen.Store("post:"+t.Model, true)
		_, _ = w.Write([]byte(`{"Count":0,"Results":[]}`))
	})
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a healthy facade", t, func() {
		var seen sync.Map
		srv := fakeFacade(false, &seen)
		defer srv.Close()

		out := filepath.Join(t.TempDir(), "results", "probe.json")
		cfg := &Config{
			BaseURL:    srv.URL,
			Targets:    []Target{{ModelYear: "2016", Manufacturer: "Land Rover", Model: "LR4"}},
			Workers:    2,
			Timeout:    2 * time.Second,
			OutputFile: out,
		}

		Convey("When running every mode", func() {
			results, stats, err := Run(context.Background(), cfg)

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(len(results), ShouldEqual, 3)
				So(stats.Checks, ShouldEqual, 3)
				So(stats.Passed, ShouldEqual, 3)
				So(stats.Empty, ShouldEqual, 1)
				So(results[1].Check.Mode, ShouldEqual, ModeRating)
			})

			Convey("And spaces reach the facade as path values", func() {
				_, ok := seen.Load("Land Rover")
				So(ok, ShouldBeTrue)
				_, ok = seen.Load("post:LR4")
				So(ok, ShouldBeTrue)
			})

			Convey("And the results file is written", func() {
				data, rerr := os.ReadFile(out)
				So(rerr, ShouldBeNil)
				var saved []Result
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(len(saved), ShouldEqual, 3)
			})
		})
	})

	Convey("Given a facade that breaks the rating invariant", t, func() {
		var seen sync.Map
		srv := fakeFacade(true, &seen)
		defer srv.Close()

		Convey("When probing the rating mode", func() {
			_, stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Modes: []Mode{ModeRating}, Timeout: time.Second})

			Convey("Then the run fails", func() {
				So(errors.Is(err, ErrChecksFailed), ShouldBeTrue)
				So(stats.Failed, ShouldEqual, len(DefaultTargets))
			})
		})
	})

	Convey("Given no facade", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		Convey("Then the health check fails", func() {
			_, _, err := Run(context.Background(), &Config{BaseURL: url, Timeout: time.Second})
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}

func TestVerifyResponse(t *testing.T) {
	Convey("Given response bodies", t, func() {
		Convey("Then a leftover Message is rejected", func() {
			_, err := verifyResponse(ModePlain, 200, []byte(`{"Count":0,"Message":"x","Results":[]}`))
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("Then a leftover VehicleDescription is rejected", func() {
			_, err := verifyResponse(ModePost, 200, []byte(`{"Count":1,"Results":[{"VehicleDescription":"x"}]}`))
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("Then extra rating keys are rejected", func() {
			_, err := verifyResponse(ModeRating, 200, []byte(`{"Count":1,"Results":[{"OverallRating":"5"}]}`))
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("Then a non-200 status is rejected", func() {
			_, err := verifyResponse(ModePlain, 500, []byte(`{"Count":0,"Results":[]}`))
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("Then the empty result passes", func() {
			count, err := verifyResponse(ModeRating, 200, []byte(`{"Count":0,"Results":[]}`))
			So(err, ShouldBeNil)
			So(count, ShouldEqual, int64(0))
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given target and mode flags", t, func() {
		targets, err := ParseTargets("2015/Audi/A3, 2016/Land Rover/Range Rover")
		So(err, ShouldBeNil)
		So(targets, ShouldResemble, []Target{
			{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"},
			{ModelYear: "2016", Manufacturer: "Land Rover", Model: "Range Rover"},
		})

		_, err = ParseTargets("2015/Audi")
		So(errors.Is(err, ErrInvalidTarget), ShouldBeTrue)

		modes, err := ParseModes("")
		So(err, ShouldBeNil)
		So(modes, ShouldResemble, AllModes)

		_, err = ParseModes("plain,bogus")
		So(errors.Is(err, ErrInvalidMode), ShouldBeTrue)
	})
}
