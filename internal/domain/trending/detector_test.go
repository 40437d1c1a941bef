package trending_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigrec/internal/domain/trending"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a detector with default windows", t, func() {
		d := trending.New()

		Convey("When an item has never been seen", func() {
			Convey("Then its score is exactly zero", func() {
				So(d.Score("nothing", now), ShouldEqual, 0)
			})
		})

		Convey("When an item has a view in the short window", func() {
			d.RecordView("p1", now.Add(-10*time.Minute), now)

			Convey("Then it counts in both view tiers", func() {
				So(d.Score("p1", now), ShouldEqual, 2.5)
			})
		})

		Convey("When an item has a view only in the long window", func() {
			d.RecordView("p1", now.Add(-5*time.Hour), now)

			Convey("Then only the long multiplier applies", func() {
				So(d.Score("p1", now), ShouldEqual, 0.5)
			})
		})

		Convey("When an item has an application", func() {
			d.RecordApplication("p1", now.Add(-2*time.Hour), now)

			Convey("Then the application multiplier applies", func() {
				So(d.Score("p1", now), ShouldEqual, 3)
			})
		})

		Convey("When a view sits exactly on the window boundary", func() {
			d.RecordView("p1", now.Add(-time.Hour), now)

			Convey("Then it is not strictly newer than the short cutoff", func() {
				So(d.Score("p1", now), ShouldEqual, 0.5)
			})
		})

		Convey("When every event has aged out", func() {
			d.RecordView("p1", now.Add(-time.Minute), now)
			later := now.Add(48 * time.Hour)

			Convey("Then the score drops to zero and the window is pruned", func() {
				So(d.Score("p1", later), ShouldEqual, 0)
				So(d.Len(), ShouldEqual, 0)
			})
		})

		Convey("When an event is older than the lookback on arrival", func() {
			d.RecordView("old", now.Add(-72*time.Hour), now)

			Convey("Then nothing is kept", func() {
				So(d.Len(), ShouldEqual, 0)
			})
		})

		Convey("When events arrive out of order", func() {
			d.RecordView("p1", now.Add(-30*time.Minute), now)
			d.RecordView("p1", now.Add(-3*time.Hour), now)
			d.RecordView("p1", now.Add(-5*time.Minute), now)

			Convey("Then they are counted by timestamp, not arrival", func() {
				So(d.Score("p1", now), ShouldEqual, 2*2+3*0.5)
			})
		})
	})
}

func TestTopProjects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a project with 100 recent views and one with a single view", t, func() {
		d := trending.New()
		for i := 0; i < 100; i++ {
			d.RecordView("busy", now.Add(-time.Duration(i)*time.Second), now)
		}
		d.RecordView("quiet", now.Add(-time.Minute), now)

		Convey("Then the busy project ranks first", func() {
			top := d.TopProjects(24, 10, now)
			So(len(top), ShouldEqual, 2)
			So(top[0].ID, ShouldEqual, "busy")
			So(top[0].Score, ShouldBeGreaterThan, top[1].Score)
		})
	})

	Convey("Given activity at different ages", t, func() {
		d := trending.New()
		d.RecordView("recent", now.Add(-30*time.Minute), now)
		d.RecordView("older", now.Add(-6*time.Hour), now)
		d.RecordApplication("applied", now.Add(-3*time.Hour), now)

		Convey("When asking for a one hour window", func() {
			top := d.TopProjects(1, 10, now)

			Convey("Then events older than the window never count", func() {
				So(len(top), ShouldEqual, 1)
				So(top[0].ID, ShouldEqual, "recent")
				So(top[0].Score, ShouldEqual, 2.5)
			})
		})

		Convey("When the window is not positive", func() {
			top := d.TopProjects(0, 10, now)

			Convey("Then the long window is used", func() {
				So(len(top), ShouldEqual, 3)
				So(top[0].ID, ShouldEqual, "applied")
			})
		})

		Convey("When the window is far beyond the lookback", func() {
			huge := d.TopProjects(3_000_000, 10, now)
			maxInt := d.TopProjects(int(^uint(0)>>1), 10, now)

			Convey("Then it ranks like the full lookback", func() {
				So(huge, ShouldResemble, d.TopProjects(24, 10, now))
				So(maxInt, ShouldResemble, huge)
				So(len(huge), ShouldEqual, 3)
			})
		})

		Convey("When limiting the result", func() {
			top := d.TopProjects(24, 1, now)
			So(len(top), ShouldEqual, 1)
		})
	})

	Convey("Given equal scores", t, func() {
		d := trending.New()
		for _, id := range []string{"c", "a", "b"} {
			d.RecordView(id, now.Add(-time.Minute), now)
		}

		Convey("Then ties order by id", func() {
			top := d.TopProjects(24, 10, now)
			So([]string{top[0].ID, top[1].ID, top[2].ID}, ShouldResemble, []string{"a", "b", "c"})
		})
	})
}

func TestCustomConfig(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given custom windows and multipliers", t, func() {
		d := trending.New(trending.WithConfig(trending.Config{
			ShortWindow:       10 * time.Minute,
			ShortViewWeight:   10,
			LongWindow:        2 * time.Hour,
			LongViewWeight:    1,
			ApplicationWindow: time.Hour,
			ApplicationWeight: 5,
		}))
		d.RecordView("p", now.Add(-time.Minute), now)
		d.RecordApplication("p", now.Add(-90*time.Minute), now)

		Convey("Then the configured values are used", func() {
			So(d.Score("p", now), ShouldEqual, 11)
			So(d.Config().Lookback(), ShouldEqual, 2*time.Hour)
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given concurrent writers and readers", t, func() {
		now := time.Now()
		d := trending.New()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					d.RecordView(fmt.Sprintf("p%d", j%5), now, now)
				}
			}(i)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_ = d.TopProjects(24, 5, now)
				}
			}()
		}
		wg.Wait()

		Convey("Then every view is counted", func() {
			So(d.Score("p0", now), ShouldEqual, 8*10*2.5)
		})
	})
}
