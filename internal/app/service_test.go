package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	service "github.com/okian/mcreate/internal/app"
	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/okian/mcreate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeUpstream struct {
	vehicles    string
	vehiclesErr error
	failIDs     map[string]bool
}

func (f *fakeUpstream) VehiclesByModel(_ context.Context, _, _, _ string) ([]byte, error) {
	if f.vehiclesErr != nil {
		return nil, f.vehiclesErr
	}
	return []byte(f.vehicles), nil
}

func (f *fakeUpstream) CrashRating(_ context.Context, id string) ([]byte, error) {
	if f.failIDs[id] {
		return nil, errors.New("rating unavailable")
	}
	return []byte(fmt.Sprintf(`{"Results":[{"OverallRating":"4","VehicleDescription":"v%s","VehicleId":%s}]}`, id, id)), nil
}

const threeVehicles = `{"Count":3,"Message":"ok","Results":[` +
	`{"VehicleDescription":"a","VehicleId":1},` +
	`{"VehicleDescription":"b","VehicleId":2},` +
	`{"VehicleDescription":"c","VehicleId":3}]}`

var audi = vehicle.Query{ModelYear: "2015", Manufacturer: "Audi", Model: "A3"}

func TestService_Vehicles(t *testing.T) {
	Convey("Given a service over a fake upstream", t, func() {
		up := &fakeUpstream{vehicles: threeVehicles, failIDs: map[string]bool{}}
		svc := service.New(up)
		ctx := context.Background()

		Convey("When listing vehicles", func() {
			list, err := svc.Vehicles(ctx, audi)

			Convey("Then the upstream list is returned", func() {
				So(err, ShouldBeNil)
				So(list.Count(), ShouldEqual, 3)
				So(list.Len(), ShouldEqual, 3)
			})
		})

		Convey("When listing vehicles with ratings and one rating fails", func() {
			up.failIDs["2"] = true
			list, err := svc.VehiclesWithRatings(ctx, audi)

			Convey("Then the failed vehicle is left out", func() {
				So(err, ShouldBeNil)
				So(list.Count, ShouldEqual, 2)
				So(list.Results[0].VehicleID.String(), ShouldEqual, "1")
				So(list.Results[1].VehicleID.String(), ShouldEqual, "3")
			})

			Convey("And the stats reflect it", func() {
				stats := svc.GetStats()
				So(stats["ratingLookups"], ShouldEqual, int64(1))
				So(stats["ratingsReturned"], ShouldEqual, int64(2))
				So(stats["ratingsDropped"], ShouldEqual, int64(1))
			})
		})

		Convey("When the vehicle lookup fails", func() {
			up.vehiclesErr = errors.New("down")
			_, err := svc.VehiclesWithRatings(ctx, audi)

			Convey("Then the error is returned and counted", func() {
				So(errors.Is(err, vehicle.ErrUpstream), ShouldBeTrue)
				So(svc.GetStats()["failedLookups"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(&fakeUpstream{}, service.WithCrashConcurrency(2))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats["started"], ShouldEqual, false)
				So(stats["crashConcurrency"], ShouldEqual, 2)
			})
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}
