package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

type readResult struct {
	streams []redis.XStream
	err     error
}

// scriptedStream answers XREAD calls from a fixed script and cancels the
// listener once the script runs out.
type scriptedStream struct {
	tail    []redis.XMessage
	tailErr []error
	reads   []readResult
	asked   []string
	cancel  context.CancelFunc
}

func (s *scriptedStream) XRevRangeN(_ context.Context, _, _, _ string, _ int64) *redis.XMessageSliceCmd {
	if len(s.tailErr) > 0 {
		err := s.tailErr[0]
		s.tailErr = s.tailErr[1:]
		return redis.NewXMessageSliceCmdResult(nil, err)
	}
	return redis.NewXMessageSliceCmdResult(s.tail, nil)
}

func (s *scriptedStream) XRead(_ context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd {
	s.asked = append(s.asked, a.Streams[1])
	if len(s.reads) == 0 {
		s.cancel()
		return redis.NewXStreamSliceCmdResult(nil, context.Canceled)
	}
	next := s.reads[0]
	s.reads = s.reads[1:]
	return redis.NewXStreamSliceCmdResult(next.streams, next.err)
}

func message(t *testing.T, id string, rows int) redis.XMessage {
	values, err := encodeEvent(StatsImported{Rows: rows, Source: "stats.csv"})
	if err != nil {
		t.Fatal(err)
	}
	return redis.XMessage{ID: id, Values: values}
}

func TestListener(t *testing.T) {
	Convey("Given a listener on a scripted stream", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stream := &scriptedStream{cancel: cancel}
		l := NewListener(stream, "player_stats.imported", zerolog.Nop())
		l.backoff = time.Millisecond

		var got []StatsImported
		handle := func(_ context.Context, ev StatsImported) error {
			got = append(got, ev)
			return nil
		}

		Convey("Reads start after the newest existing entry", func() {
			stream.tail = []redis.XMessage{{ID: "5-0"}}
			stream.reads = []readResult{
				{streams: []redis.XStream{{Stream: "player_stats.imported", Messages: []redis.XMessage{message(t, "6-0", 42)}}}},
			}

			So(l.Listen(ctx, handle), ShouldBeNil)
			So(stream.asked, ShouldResemble, []string{"5-0", "6-0"})
			So(got, ShouldHaveLength, 1)
			So(got[0].Rows, ShouldEqual, 42)
		})

		Convey("An empty stream is read from the beginning", func() {
			So(l.Listen(ctx, handle), ShouldBeNil)
			So(stream.asked, ShouldResemble, []string{"0-0"})
		})

		Convey("A read error resumes from the same position", func() {
			stream.tail = []redis.XMessage{{ID: "5-0"}}
			stream.reads = []readResult{
				{err: errors.New("connection reset")},
				{err: redis.Nil},
				{streams: []redis.XStream{{Stream: "player_stats.imported", Messages: []redis.XMessage{message(t, "7-0", 3)}}}},
			}

			So(l.Listen(ctx, handle), ShouldBeNil)
			So(stream.asked, ShouldResemble, []string{"5-0", "5-0", "5-0", "7-0"})
			So(got, ShouldHaveLength, 1)
			So(got[0].Rows, ShouldEqual, 3)
		})

		Convey("A failed tail lookup is retried before reading", func() {
			stream.tailErr = []error{errors.New("loading")}
			stream.tail = []redis.XMessage{{ID: "9-0"}}

			So(l.Listen(ctx, handle), ShouldBeNil)
			So(stream.asked, ShouldResemble, []string{"9-0"})
		})
	})
}
