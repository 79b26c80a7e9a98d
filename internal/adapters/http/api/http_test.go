package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/gamefeed/internal/adapters/catalog"
	"github.com/okian/gamefeed/internal/adapters/http/api"
	app "github.com/okian/gamefeed/internal/app"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/types"
	"github.com/okian/gamefeed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockService records calls and serves canned responses.
type mockService struct {
	feed      types.FeedPage
	feedErr   error
	smartErr  error
	enqueueOK bool

	displayed [][]int64
	views     []model.CatalogItem
	skips     []model.CatalogItem
	genres    []string
	resets    int

	genreList []model.Genre
	genreErr  error
	links     []model.StoreLink
	detail    app.ItemDetail
	detailErr error
}

func (m *mockService) NextPage(ctx context.Context, page int, genres, search string) (types.FeedPage, error) {
	if m.feedErr != nil {
		return types.FeedPage{}, m.feedErr
	}
	out := m.feed
	out.Page = page
	return out, nil
}

func (m *mockService) SmartFeed(ctx context.Context, page int, genres, search string) (types.FeedPage, error) {
	if m.smartErr != nil {
		return types.FeedPage{}, m.smartErr
	}
	out := m.feed
	out.Page = page
	return out, nil
}

func (m *mockService) MarkDisplayed(ctx context.Context, ids []int64) bool {
	if !m.enqueueOK {
		return false
	}
	m.displayed = append(m.displayed, ids)
	return true
}

func (m *mockService) RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64) bool {
	if !m.enqueueOK {
		return false
	}
	m.views = append(m.views, item)
	return true
}

func (m *mockService) RecordSkip(ctx context.Context, item model.CatalogItem) bool {
	if !m.enqueueOK {
		return false
	}
	m.skips = append(m.skips, item)
	return true
}

func (m *mockService) RecordGenreInterest(ctx context.Context, genreSlug string) bool {
	if !m.enqueueOK {
		return false
	}
	m.genres = append(m.genres, genreSlug)
	return true
}

func (m *mockService) StoreLinks(ctx context.Context, name string) []model.StoreLink {
	return m.links
}

func (m *mockService) Genres(ctx context.Context) ([]model.Genre, error) {
	return m.genreList, m.genreErr
}

func (m *mockService) Detail(ctx context.Context, id int64, withScreenshots bool) (app.ItemDetail, error) {
	return m.detail, m.detailErr
}

func (m *mockService) Reset(ctx context.Context) {
	m.resets++
}

func (m *mockService) Stats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{"started": true, "seed": "abc123"}
}

func newTestServer(svc api.Service) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestFeedEndpoints(t *testing.T) {
	Convey("Given a server over a healthy service", t, func() {
		svc := &mockService{
			feed: types.FeedPage{
				Items: []types.FeedItem{{ID: 1, Name: "Myst", Released: "1993-09-24"}},
				Seed:  "abc123",
			},
			enqueueOK: true,
		}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("When GET /feed is requested", func() {
			resp, err := http.Get(ts.URL + "/feed?page=3")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the page comes back with its seed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var page types.FeedPage
				So(json.NewDecoder(resp.Body).Decode(&page), ShouldBeNil)
				So(page.Page, ShouldEqual, 3)
				So(page.Seed, ShouldEqual, "abc123")
				So(page.Items, ShouldHaveLength, 1)
			})
		})

		Convey("When GET /feed has no page parameter", func() {
			resp, err := http.Get(ts.URL + "/feed")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then page one is served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var page types.FeedPage
				So(json.NewDecoder(resp.Body).Decode(&page), ShouldBeNil)
				So(page.Page, ShouldEqual, 1)
			})
		})

		Convey("When GET /feed has a bad page parameter", func() {
			resp, err := http.Get(ts.URL + "/feed?page=zero")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When GET /feed/smart is requested", func() {
			resp, err := http.Get(ts.URL + "/feed/smart")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When POST hits the feed route", func() {
			resp, err := http.Post(ts.URL+"/feed", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given a service with a fetch already in flight", t, func() {
		svc := &mockService{feedErr: app.ErrFetchInFlight}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("Then the feed answers 429", func() {
			resp, err := http.Get(ts.URL + "/feed")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
		})
	})

	Convey("Given a service reset mid-fetch", t, func() {
		svc := &mockService{feedErr: app.ErrStaleResult}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("Then the feed answers 409", func() {
			resp, err := http.Get(ts.URL + "/feed")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})
	})
}

func TestInteractionsEndpoint(t *testing.T) {
	Convey("Given a server accepting interactions", t, func() {
		svc := &mockService{enqueueOK: true}
		ts := newTestServer(svc)
		Reset(ts.Close)

		post := func(body string) *http.Response {
			resp, err := http.Post(ts.URL+"/interactions", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When a displayed batch is posted", func() {
			resp := post(`{"type":"displayed","item_ids":[1,2,3]}`)
			defer resp.Body.Close()

			Convey("Then it is accepted and routed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(svc.displayed, ShouldHaveLength, 1)
				So(svc.displayed[0], ShouldResemble, []int64{1, 2, 3})
			})
		})

		Convey("When a view is posted", func() {
			resp := post(`{"type":"view","item":{"id":7,"name":"Myst","genres":[{"slug":"puzzle"}]},"dwell_seconds":5.5}`)
			defer resp.Body.Close()

			Convey("Then the item reaches the service normalized", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(svc.views, ShouldHaveLength, 1)
				So(svc.views[0].ID, ShouldEqual, 7)
				So(svc.views[0].GenreSlugs(), ShouldResemble, []string{"puzzle"})
			})
		})

		Convey("When a skip is posted", func() {
			resp := post(`{"type":"skip","item":{"id":7}}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			So(svc.skips, ShouldHaveLength, 1)
		})

		Convey("When genre interest is posted", func() {
			resp := post(`{"type":"genre_interest","genre":"rpg"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			So(svc.genres, ShouldResemble, []string{"rpg"})
		})

		Convey("When the type is missing", func() {
			resp := post(`{"item_ids":[1]}`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a view has no item", func() {
			resp := post(`{"type":"view","dwell_seconds":4}`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp := post(`not json`)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a server under backpressure", t, func() {
		svc := &mockService{enqueueOK: false}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("Then interactions answer 429", func() {
			resp, err := http.Post(ts.URL+"/interactions", "application/json",
				strings.NewReader(`{"type":"displayed","item_ids":[1]}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestCatalogEndpoints(t *testing.T) {
	Convey("Given a server with catalog metadata", t, func() {
		svc := &mockService{
			enqueueOK: true,
			genreList: []model.Genre{{ID: 1, Slug: "rpg", Name: "RPG"}},
			links:     []model.StoreLink{{Name: "Steam", URL: "https://store.steampowered.com/app/1"}},
			detail:    app.ItemDetail{Item: model.CatalogItem{ID: 42, Name: "Myst"}, Screenshots: []string{"s1"}},
		}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("When GET /genres is requested", func() {
			resp, err := http.Get(ts.URL + "/genres")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var genres []model.Genre
			So(json.NewDecoder(resp.Body).Decode(&genres), ShouldBeNil)
			So(genres, ShouldHaveLength, 1)
		})

		Convey("When GET /stores is requested with a search", func() {
			resp, err := http.Get(ts.URL + "/stores?search=Myst")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var links []model.StoreLink
			So(json.NewDecoder(resp.Body).Decode(&links), ShouldBeNil)
			So(links[0].Name, ShouldEqual, "Steam")
		})

		Convey("When GET /stores has no search", func() {
			resp, err := http.Get(ts.URL + "/stores")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When GET /games/42 is requested", func() {
			resp, err := http.Get(ts.URL + "/games/42?screenshots=true")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the game id is not numeric", func() {
			resp, err := http.Get(ts.URL + "/games/myst")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given an upstream that has no such game", t, func() {
		svc := &mockService{
			enqueueOK: true,
			detailErr: &catalog.StatusError{Code: http.StatusNotFound, Message: "Not found."},
		}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("Then the detail answers 404", func() {
			resp, err := http.Get(ts.URL + "/games/99999")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSessionEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		svc := &mockService{enqueueOK: true}
		ts := newTestServer(svc)
		Reset(ts.Close)

		Convey("When POST /reset is requested", func() {
			resp, err := http.Post(ts.URL+"/reset", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the session state is discarded", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(svc.resets, ShouldEqual, 1)
			})
		})

		Convey("When GET /reset is requested", func() {
			resp, err := http.Get(ts.URL + "/reset")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When GET /stats is requested", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats["seed"], ShouldEqual, "abc123")
		})

		Convey("When GET /healthz is requested", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
