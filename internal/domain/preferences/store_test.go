package preferences_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/okian/gigrec/internal/domain/preferences"
	"github.com/okian/gigrec/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIncrement(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := preferences.New(preferences.WithShardCount(4))

		Convey("When reading an unknown user", func() {
			p := s.Get("ghost")

			Convey("Then the profile is empty but usable", func() {
				So(p.Empty(), ShouldBeTrue)
				So(p.Categories, ShouldNotBeNil)
				So(p.Skills, ShouldNotBeNil)
			})
		})

		Convey("When incrementing several times", func() {
			s.Increment("u1", "Web Development", []string{"React", "css"}, 0.1)
			s.Increment("u1", "web development", []string{"react"}, 0.5)

			Convey("Then weights accumulate case-insensitively", func() {
				p := s.Get("u1")
				So(p.Categories["web development"], ShouldAlmostEqual, 0.6)
				So(p.Skills["react"], ShouldAlmostEqual, 0.6)
				So(p.Skills["css"], ShouldAlmostEqual, 0.1)
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When incrementing with a non-positive weight", func() {
			s.Increment("u1", "design", []string{"figma"}, 1)
			before := s.Get("u1")
			s.Increment("u1", "design", []string{"figma"}, -5)
			s.Increment("u1", "design", []string{"figma"}, 0)

			Convey("Then no weight ever decreases", func() {
				after := s.Get("u1")
				So(after.Categories["design"], ShouldEqual, before.Categories["design"])
				So(after.Skills["figma"], ShouldEqual, before.Skills["figma"])
			})
		})

		Convey("When mutating a returned profile", func() {
			s.Increment("u1", "design", nil, 1)
			p := s.Get("u1")
			p.Categories["design"] = 100

			Convey("Then the store keeps its own copy", func() {
				So(s.Get("u1").Categories["design"], ShouldEqual, 1)
			})
		})
	})
}

func TestTop(t *testing.T) {
	Convey("Given weighted terms with ties", t, func() {
		w := map[string]float64{"b": 2, "a": 2, "c": 5, "d": 1}

		Convey("Then Top orders by weight then term and truncates", func() {
			So(preferences.Top(w, 3), ShouldResemble, []types.Weighted{
				{Term: "c", Weight: 5}, {Term: "a", Weight: 2}, {Term: "b", Weight: 2},
			})
			So(len(preferences.Top(w, 0)), ShouldEqual, 4)
			So(preferences.Max(w), ShouldEqual, 5)
			So(preferences.Max(nil), ShouldEqual, 0)
		})
	})
}

func TestConcurrentIncrements(t *testing.T) {
	Convey("Given many goroutines incrementing distinct and shared users", t, func() {
		s := preferences.New()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					s.Increment("shared", "cat", nil, 1)
					s.Increment(fmt.Sprintf("u%d", i), "cat", []string{"go"}, 1)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(s.Get("shared").Categories["cat"], ShouldEqual, 1600)
			So(s.Len(), ShouldEqual, 17)
		})
	})
}
