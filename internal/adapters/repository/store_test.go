package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/gigrec/internal/adapters/repository"
	"github.com/okian/gigrec/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type factory struct {
	name string
	open func(t *testing.T) repository.Store
}

func factories() []factory {
	return []factory{
		{"memory", func(*testing.T) repository.Store { return repository.NewMemoryStore() }},
		{"badger", func(t *testing.T) repository.Store {
			s, err := repository.OpenBadgerStore("")
			if err != nil {
				t.Fatalf("open badger: %v", err)
			}
			return s
		}},
	}
}

func collect(ctx context.Context, s repository.Store) ([]model.Item, []model.Event, error) {
	var items []model.Item
	var events []model.Event
	err := s.Load(ctx, repository.Visitor{
		Item:  func(it model.Item) error { items = append(items, it); return nil },
		Event: func(ev model.Event) error { events = append(events, ev); return nil },
	})
	return items, events, err
}

func TestStoreContract(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	for _, f := range factories() {
		Convey("Given a "+f.name+" store", t, func() {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			Convey("When saving items, including an upsert", func() {
				So(s.SaveItem(ctx, model.Item{ID: "p1", Kind: model.KindProject, Category: "web", Revision: 1}), ShouldBeNil)
				So(s.SaveItem(ctx, model.Item{ID: "f1", Kind: model.KindFreelancer, Rating: 4.5, Revision: 1}), ShouldBeNil)
				So(s.SaveItem(ctx, model.Item{ID: "p1", Kind: model.KindProject, Category: "mobile", Revision: 2}), ShouldBeNil)

				Convey("Then only the latest version of each item is loaded", func() {
					items, _, err := collect(ctx, s)
					So(err, ShouldBeNil)
					So(len(items), ShouldEqual, 2)
					byID := map[string]model.Item{}
					for _, it := range items {
						byID[it.ID] = it
					}
					So(byID["p1"].Category, ShouldEqual, "mobile")
					So(byID["p1"].Revision, ShouldEqual, 2)
					So(byID["f1"].Rating, ShouldEqual, 4.5)
				})
			})

			Convey("When appending events", func() {
				for i := 0; i < 300; i++ {
					ev := model.Event{ID: fmt.Sprint(i), UserID: "u", ItemID: fmt.Sprintf("p%d", i), Kind: model.EventView, Timestamp: ts.Add(time.Duration(i) * time.Second)}
					So(s.AppendEvent(ctx, ev), ShouldBeNil)
				}

				Convey("Then they load in append order with their fields intact", func() {
					_, events, err := collect(ctx, s)
					So(err, ShouldBeNil)
					So(len(events), ShouldEqual, 300)
					for i, ev := range events {
						So(ev.ID, ShouldEqual, fmt.Sprint(i))
					}
					So(events[10].Timestamp.Equal(ts.Add(10*time.Second)), ShouldBeTrue)
					So(events[10].Kind, ShouldEqual, model.EventView)

					st, err := s.Stats(ctx)
					So(err, ShouldBeNil)
					So(st.Events, ShouldEqual, 300)
				})
			})

			Convey("When a visitor fails", func() {
				So(s.SaveItem(ctx, model.Item{ID: "p1", Kind: model.KindProject}), ShouldBeNil)
				boom := errors.New("boom")
				err := s.Load(ctx, repository.Visitor{Item: func(model.Item) error { return boom }})

				Convey("Then the walk stops with that error", func() {
					So(errors.Is(err, boom), ShouldBeTrue)
				})
			})

			Convey("When writing invalid records", func() {
				Convey("Then they are rejected", func() {
					So(errors.Is(s.SaveItem(ctx, model.Item{ID: "x"}), repository.ErrInvalid), ShouldBeTrue)
					So(errors.Is(s.AppendEvent(ctx, model.Event{UserID: "u"}), repository.ErrInvalid), ShouldBeTrue)
				})
			})

			Convey("When the store is closed", func() {
				So(s.Close(), ShouldBeNil)

				Convey("Then writes fail with ErrClosed and closing again is harmless", func() {
					So(errors.Is(s.SaveItem(ctx, model.Item{ID: "p", Kind: model.KindProject}), repository.ErrClosed), ShouldBeTrue)
					So(errors.Is(s.AppendEvent(ctx, model.Event{UserID: "u", ItemID: "p", Kind: model.EventView}), repository.ErrClosed), ShouldBeTrue)
					So(s.Close(), ShouldBeNil)
				})
			})
		})
	}
}

func TestBadgerPersistence(t *testing.T) {
	Convey("Given a badger store on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		s, err := repository.OpenBadgerStore(dir, repository.WithSyncWrites(true))
		So(err, ShouldBeNil)
		So(s.SaveItem(ctx, model.Item{ID: "p1", Kind: model.KindProject, Skills: []string{"go"}}), ShouldBeNil)
		So(s.AppendEvent(ctx, model.Event{ID: "e1", UserID: "u", ItemID: "p1", Kind: model.EventApplication}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When it is reopened and more events are appended", func() {
			s2, err := repository.OpenBadgerStore(dir)
			So(err, ShouldBeNil)
			defer func() { _ = s2.Close() }()
			So(s2.AppendEvent(ctx, model.Event{ID: "e2", UserID: "u", ItemID: "p1", Kind: model.EventView}), ShouldBeNil)

			Convey("Then earlier records survive and order is kept", func() {
				items, events, err := collect(ctx, s2)
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 1)
				So(items[0].Skills, ShouldResemble, []string{"go"})
				So(len(events), ShouldEqual, 2)
				So(events[0].ID, ShouldEqual, "e1")
				So(events[1].ID, ShouldEqual, "e2")

				st, err := s2.Stats(ctx)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, repository.Stats{Items: 1, Events: 2})
			})
		})
	})
}
