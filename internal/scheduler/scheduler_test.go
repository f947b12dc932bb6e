package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/fortuna/frisbee/internal/config"
	"github.com/fortuna/frisbee/internal/importer"
)

type recordingEnqueuer struct {
	requests []importer.Request
	err      error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, req importer.Request) (*importer.Job, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &importer.Job{JobID: "job-1", Source: req.Source}, nil
}

func TestScheduler(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		svc, err := New(zerolog.Nop())
		So(err, ShouldBeNil)
		Reset(func() { _ = svc.Stop() })

		Convey("Jobs need a name and a cron expression", func() {
			_, err := svc.AddJob("", "* * * * *", func() {})
			So(err, ShouldEqual, ErrEmptyJobName)

			_, err = svc.AddJob("x", " ", func() {})
			So(err, ShouldEqual, ErrEmptyCronExpr)

			_, err = svc.AddJob("x", "not a cron", func() {})
			So(err, ShouldNotBeNil)
		})

		Convey("Imports are skipped when unconfigured", func() {
			enq := &recordingEnqueuer{}
			ok, err := svc.ScheduleImports(enq, config.ImportConfig{Cron: "0 * * * *"})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("A configured import registers one job", func() {
			enq := &recordingEnqueuer{}
			ok, err := svc.ScheduleImports(enq, config.ImportConfig{
				Cron:   "*/15 * * * *",
				Source: "https://example.com/stats.csv",
				Format: "csv",
			})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestImportTask(t *testing.T) {
	Convey("The import task enqueues the configured source", t, func() {
		enq := &recordingEnqueuer{}
		req := importer.Request{Source: "stats.csv", RequestedBy: "scheduler"}

		importTask(enq, req, zerolog.Nop())()
		So(enq.requests, ShouldResemble, []importer.Request{req})

		Convey("and swallows enqueue failures", func() {
			enq.err = errors.New("db down")
			So(importTask(enq, req, zerolog.Nop()), ShouldNotPanic)
		})
	})
}
