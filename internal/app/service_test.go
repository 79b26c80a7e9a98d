package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/gamefeed/internal/app"
	"github.com/okian/gamefeed/internal/assembler"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/profile"
	"github.com/okian/gamefeed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeCatalog serves a deterministic synthetic catalog. Page p carries
// ids [p*100+1, p*100+pageSize].
type fakeCatalog struct {
	mu      sync.Mutex
	calls   int
	gate    chan struct{} // when set, FetchPage blocks until closed
	fetchErr error
}

func (f *fakeCatalog) FetchPage(ctx context.Context, req assembler.PageRequest) ([]model.CatalogItem, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	err := f.fetchErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	items := make([]model.CatalogItem, 0, req.PageSize)
	for i := 0; i < req.PageSize; i++ {
		id := int64(req.Page*100 + i + 1)
		items = append(items, model.CatalogItem{
			ID:       id,
			Name:     "Game " + string(rune('A'+i%26)),
			Released: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			ImageURL: "https://img.example/x.jpg",
			Rating:   4.0,
			Quality:  80,
			Genres:   []model.Genre{{ID: 1, Slug: "rpg", Name: "RPG"}},
			Viable:   true,
		})
	}
	return items, nil
}

func (f *fakeCatalog) Detail(ctx context.Context, id int64) (model.CatalogItem, error) {
	return model.CatalogItem{ID: id, Name: "Detail", Viable: true}, nil
}

func (f *fakeCatalog) Screenshots(ctx context.Context, id int64) ([]string, error) {
	return []string{"https://img.example/shot1.jpg"}, nil
}

func (f *fakeCatalog) Genres(ctx context.Context) ([]model.Genre, error) {
	return []model.Genre{{ID: 1, Slug: "rpg", Name: "RPG"}}, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver struct {
	links []model.StoreLink
	err   error
}

func (f *fakeResolver) Lookup(ctx context.Context, name string) ([]model.StoreLink, error) {
	return f.links, f.err
}

func waitFor(check func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func startService(t *testing.T, opts ...service.Option) (*service.Service, *fakeCatalog) {
	t.Helper()
	cat := &fakeCatalog{}
	base := []service.Option{
		service.WithCatalog(cat),
		service.WithSeed("abc123"),
		service.WithPageSize(10),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, cat
}

func TestService_New(t *testing.T) {
	Convey("Given a service built without a catalog", t, func() {
		svc := service.New()

		Convey("Then Start refuses to run", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoCatalog)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithCatalog(&fakeCatalog{}))

		Convey("Then operations report not started", func() {
			_, err := svc.NextPage(context.Background(), 1, "", "")
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.SmartFeed(context.Background(), 1, "", "")
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.RecordGenreInterest(context.Background(), "rpg"), ShouldBeFalse)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)
		ctx := context.Background()

		Convey("Then stats report it running", func() {
			stats := svc.Stats(ctx)
			So(stats["started"], ShouldEqual, true)
			So(stats["seed"], ShouldEqual, "abc123")
		})

		Convey("When stopped twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then the second stop is a no-op", func() {
				So(svc.Stats(ctx)["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given no pinned seed", t, func() {
		cat := &fakeCatalog{}
		svc := service.New(service.WithCatalog(cat))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the service mints one", func() {
			So(svc.Seed(), ShouldNotBeEmpty)
		})
	})
}

func TestService_NextPage(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, cat := startService(t)
		ctx := context.Background()

		Convey("When requesting the first page", func() {
			page, err := svc.NextPage(ctx, 1, "", "")

			Convey("Then it returns a full seeded page", func() {
				So(err, ShouldBeNil)
				So(len(page.Items), ShouldEqual, 10)
				So(page.Page, ShouldEqual, 1)
				So(page.Seed, ShouldEqual, "abc123")
				So(page.FirstPass, ShouldBeGreaterThan, 0)
			})

			Convey("And both pool pages were fetched", func() {
				So(cat.callCount(), ShouldEqual, 2)
			})

			Convey("And items arrive best first", func() {
				for i := 1; i < len(page.Items); i++ {
					So(page.Items[i].Score, ShouldBeLessThanOrEqualTo, page.Items[i-1].Score)
				}
			})
		})

		Convey("When the same page is requested twice", func() {
			a, errA := svc.NextPage(ctx, 1, "", "")
			b, errB := svc.NextPage(ctx, 1, "", "")

			Convey("Then the ordering is reproducible", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				for i := range a.Items {
					So(b.Items[i].ID, ShouldEqual, a.Items[i].ID)
				}
			})
		})

		Convey("When the upstream fails entirely", func() {
			cat.mu.Lock()
			cat.fetchErr = errors.New("upstream down")
			cat.mu.Unlock()

			page, err := svc.NextPage(ctx, 1, "", "")

			Convey("Then an empty page is still a page", func() {
				So(err, ShouldBeNil)
				So(page.Items, ShouldBeEmpty)
			})
		})
	})
}

func TestService_InFlightGuard(t *testing.T) {
	Convey("Given a fetch held open", t, func() {
		gate := make(chan struct{})
		svc, cat := startService(t)
		cat.mu.Lock()
		cat.gate = gate
		cat.mu.Unlock()

		ctx := context.Background()
		done := make(chan error, 1)
		go func() {
			_, err := svc.NextPage(ctx, 1, "", "")
			done <- err
		}()

		// Wait until the first request is inside the fetch.
		So(waitFor(func() bool { return cat.callCount() > 0 }), ShouldBeTrue)

		Convey("When a second page is requested meanwhile", func() {
			_, err := svc.NextPage(ctx, 2, "", "")

			Convey("Then it is rejected instead of fanning out", func() {
				So(err, ShouldEqual, service.ErrFetchInFlight)
			})
		})

		Convey("When the session is reset mid-fetch", func() {
			svc.Reset(ctx)
			close(gate)

			Convey("Then the stale page is discarded", func() {
				So(<-done, ShouldEqual, service.ErrStaleResult)
			})
		})

		Reset(func() {
			// done is buffered, so the fetch goroutine never leaks even
			// when a leaf already consumed its result.
			select {
			case <-gate:
			default:
				close(gate)
			}
		})
	})
}

func TestService_Interactions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)
		ctx := context.Background()

		Convey("When a displayed batch is reported", func() {
			So(svc.MarkDisplayed(ctx, []int64{101, 102}), ShouldBeTrue)

			Convey("Then the seen tracker absorbs it", func() {
				So(waitFor(func() bool {
					n, _ := svc.Stats(ctx)["seenItems"].(int64)
					return n == 2
				}), ShouldBeTrue)
			})
		})

		Convey("When an empty batch is reported", func() {
			So(svc.MarkDisplayed(ctx, nil), ShouldBeFalse)
		})

		Convey("When genre interest is reported", func() {
			So(svc.RecordGenreInterest(ctx, "indie"), ShouldBeTrue)

			Convey("Then the profile learns the genre", func() {
				So(waitFor(func() bool {
					genres, _ := svc.Stats(ctx)["topGenres"].([]profile.GenreScore)
					return len(genres) == 1 && genres[0].Slug == "indie"
				}), ShouldBeTrue)
			})
		})

		Convey("When views and skips are reported", func() {
			item := model.CatalogItem{
				ID:     7,
				Genres: []model.Genre{{Slug: "rpg", Name: "RPG"}},
			}
			So(svc.RecordView(ctx, item, 6), ShouldBeTrue)
			So(svc.RecordSkip(ctx, item), ShouldBeTrue)

			Convey("Then interactions accumulate", func() {
				So(waitFor(func() bool {
					n, _ := svc.Stats(ctx)["totalInteractions"].(int)
					return n == 2
				}), ShouldBeTrue)
			})
		})

		Convey("When a zero-id item is reported", func() {
			So(svc.RecordView(ctx, model.CatalogItem{}, 6), ShouldBeFalse)
			So(svc.RecordSkip(ctx, model.CatalogItem{}), ShouldBeFalse)
		})
	})
}

func TestService_SmartFeed(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)
		ctx := context.Background()

		Convey("When the smart feed is requested", func() {
			page, err := svc.SmartFeed(ctx, 1, "", "")

			Convey("Then it serves a preference-scored page", func() {
				So(err, ShouldBeNil)
				So(len(page.Items), ShouldEqual, 10)
				for _, it := range page.Items {
					So(it.Score, ShouldBeGreaterThan, 0)
				}
			})
		})
	})
}

func TestService_StoreLinks(t *testing.T) {
	ctx := context.Background()

	Convey("Given a resolver that succeeds", t, func() {
		links := []model.StoreLink{{Name: "Steam", URL: "https://store.steampowered.com/app/1"}}
		svc, _ := startService(t, service.WithStoreResolver(&fakeResolver{links: links}))

		Convey("Then lookups pass through", func() {
			So(svc.StoreLinks(ctx, "Myst"), ShouldResemble, links)
		})
	})

	Convey("Given a resolver that fails", t, func() {
		svc, _ := startService(t, service.WithStoreResolver(&fakeResolver{err: errors.New("igdb down")}))

		Convey("Then the lookup degrades to empty", func() {
			So(svc.StoreLinks(ctx, "Myst"), ShouldBeEmpty)
		})
	})

	Convey("Given no resolver at all", t, func() {
		svc, _ := startService(t)

		Convey("Then lookups return empty", func() {
			So(svc.StoreLinks(ctx, "Myst"), ShouldBeEmpty)
		})
	})
}

func TestService_Detail(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)
		ctx := context.Background()

		Convey("When a detail is requested with screenshots", func() {
			detail, err := svc.Detail(ctx, 42, true)

			Convey("Then both arrive", func() {
				So(err, ShouldBeNil)
				So(detail.Item.ID, ShouldEqual, 42)
				So(detail.Screenshots, ShouldHaveLength, 1)
			})
		})

		Convey("When screenshots are not wanted", func() {
			detail, err := svc.Detail(ctx, 42, false)

			Convey("Then only the item arrives", func() {
				So(err, ShouldBeNil)
				So(detail.Screenshots, ShouldBeNil)
			})
		})
	})
}

func TestService_Genres(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := startService(t)

		Convey("Then the genre list passes through", func() {
			genres, err := svc.Genres(context.Background())
			So(err, ShouldBeNil)
			So(genres, ShouldHaveLength, 1)
			So(genres[0].Slug, ShouldEqual, "rpg")
		})
	})
}
