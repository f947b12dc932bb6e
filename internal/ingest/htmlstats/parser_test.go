package htmlstats_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fortuna/frisbee/internal/ingest"
	"github.com/fortuna/frisbee/internal/ingest/htmlstats"
	. "github.com/smartystreets/goconvey/convey"
)

const page = `<html><body>
<table id="nav"><tr><td>Home</td><td>Schedule</td></tr></table>
<table class="stats">
  <thead>
    <tr><th>Player Name</th><th>Player Team</th><th>Tournament Played</th><th>Game Played</th>
        <th>Goals</th><th>Assists</th><th>Drops</th><th>Throwaways</th><th>Ds</th><th>Timestamp</th></tr>
  </thead>
  <tbody>
    <tr><td>John Doe</td><td>Flyers</td><td>Spring Open</td><td>Pool A1</td>
        <td>5</td><td>3</td><td>1</td><td>2</td><td>1</td><td>2024-01-15</td></tr>
    <tr><td>Jane Smith</td><td>Flyers</td><td>Spring Open</td><td>Pool A2</td>
        <td>3</td><td>5</td><td>0</td><td>1</td><td>2</td><td>2024-01-16</td></tr>
  </tbody>
</table>
</body></html>`

func TestParse(t *testing.T) {
	Convey("Given a page with a navigation table and a stat table", t, func() {
		res, err := htmlstats.Parse(strings.NewReader(page), ingest.Options{})

		Convey("Then the stat table is found and read", func() {
			So(err, ShouldBeNil)
			So(len(res.Rows), ShouldEqual, 2)
			So(res.Rows[1].PlayerName, ShouldEqual, "Jane Smith")
			So(res.Rows[1].Game, ShouldEqual, "Pool A2")
			So(res.Rows[1].Stats.Assists, ShouldEqual, 5)
			So(res.Rows[1].Timestamp, ShouldEqual, "2024-01-16")
		})
	})

	Convey("Given a page without a stat table", t, func() {
		_, err := htmlstats.Parse(strings.NewReader(`<table><tr><th>a</th></tr></table>`), ingest.Options{})

		Convey("Then ErrNoStatTable is returned", func() {
			So(errors.Is(err, htmlstats.ErrNoStatTable), ShouldBeTrue)
		})
	})

	Convey("Given a stat table with a malformed cell", t, func() {
		bad := strings.Replace(page, "<td>3</td><td>5</td>", "<td>x</td><td>5</td>", 1)
		_, err := htmlstats.Parse(strings.NewReader(bad), ingest.Options{})

		Convey("Then the value error surfaces", func() {
			So(errors.Is(err, ingest.ErrBadValue), ShouldBeTrue)
		})
	})
}
