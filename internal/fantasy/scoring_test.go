package fantasy_test

import (
	"errors"
	"testing"

	"github.com/fortuna/frisbee/internal/fantasy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoringFormulas(t *testing.T) {
	Convey("Given goals=2 assists=3 ds=1 drops=1 throwaways=0", t, func() {
		g, a, d, dr, th := 2.0, 3.0, 1.0, 1.0, 0.0

		Convey("Then each role formula matches its weights", func() {
			So(fantasy.CaptainScore(g, a, d, dr, th), ShouldEqual, 21)
			So(fantasy.HandlerScore(g, a, d, dr, th), ShouldEqual, 13)
			So(fantasy.CutterScore(g, a, d, dr, th), ShouldEqual, 11)
			So(fantasy.DefenderScore(g, a, d, dr, th), ShouldEqual, 13)
		})
	})

	Convey("Given a stat line with only turnovers", t, func() {
		line := fantasy.StatLine{Drops: 2, Throwaways: 3}

		Convey("Then turnovers are derived and every score is negative", func() {
			So(line.Turnovers(), ShouldEqual, 5)
			scores := fantasy.ScoreAll(line)
			So(scores.Captain, ShouldEqual, -15)
			So(scores.Handler, ShouldEqual, -5)
			So(scores.Cutter, ShouldEqual, -5)
			So(scores.Defender, ShouldEqual, -5)
		})
	})

	Convey("Given negative counting stats", t, func() {
		Convey("Then they flow through the formula unclamped", func() {
			So(fantasy.CaptainScore(-1, 0, 0, 0, 0), ShouldEqual, -3)
		})
	})

	Convey("Given ScoreFor", t, func() {
		line := fantasy.StatLine{Goals: 2, Assists: 3, Ds: 1, Drops: 1}

		Convey("When the position is known", func() {
			Convey("Then it selects that position's formula", func() {
				So(fantasy.ScoreFor(fantasy.PositionCaptain, line), ShouldEqual, 21)
				So(fantasy.ScoreFor(fantasy.PositionHandler, line), ShouldEqual, 13)
				So(fantasy.ScoreFor(fantasy.PositionCutter, line), ShouldEqual, 11)
				So(fantasy.ScoreFor(fantasy.PositionDefender, line), ShouldEqual, 13)
			})
		})

		Convey("When the position is unknown", func() {
			Convey("Then it scores zero", func() {
				So(fantasy.ScoreFor(fantasy.Position("goalie"), line), ShouldEqual, 0)
			})
		})
	})

	Convey("Given two stat lines", t, func() {
		a := fantasy.StatLine{Goals: 1, Assists: 2, Ds: 3, Drops: 4, Throwaways: 5}
		b := fantasy.StatLine{Goals: 10, Assists: 20, Ds: 30, Drops: 40, Throwaways: 50}

		Convey("Then Add sums field by field", func() {
			So(a.Add(b), ShouldResemble, fantasy.StatLine{Goals: 11, Assists: 22, Ds: 33, Drops: 44, Throwaways: 55})
		})
	})
}

func TestParsePosition(t *testing.T) {
	Convey("Given user supplied position names", t, func() {
		Convey("Then case and whitespace are normalized", func() {
			p, err := fantasy.ParsePosition("  Captain ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, fantasy.PositionCaptain)
		})

		Convey("Then unknown names are rejected", func() {
			_, err := fantasy.ParsePosition("goalie")
			So(errors.Is(err, fantasy.ErrUnknownPosition), ShouldBeTrue)
		})
	})
}
