package assembler_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/gamefeed/internal/assembler"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/seeded"
	"github.com/okian/gamefeed/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeFetcher serves canned pages and records which pages were asked for.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int][]model.CatalogItem
	fail  map[int]error
	asked []int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, req assembler.PageRequest) ([]model.CatalogItem, error) {
	f.mu.Lock()
	f.asked = append(f.asked, req.Page)
	f.mu.Unlock()

	if err, ok := f.fail[req.Page]; ok {
		return nil, err
	}
	return f.pages[req.Page], nil
}

func poolItem(id int64, quality, rating float64) model.CatalogItem {
	raw := model.RawItem{
		ID:       id,
		Name:     "item",
		ImageURL: "https://img.example/x.jpg",
		Quality:  &quality,
		Rating:   &rating,
	}
	return raw.Normalize()
}

func TestAssemble(t *testing.T) {
	Convey("Given an assembler over a fake catalog", t, func() {
		ctx := context.Background()

		Convey("When the page argument is out of contract", func() {
			a := assembler.New(&fakeFetcher{})
			_, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 0, PageSize: 20})

			Convey("Then it fails with the page violation", func() {
				So(err, ShouldEqual, assembler.ErrInvalidPage)
			})
		})

		Convey("When the page size is out of contract", func() {
			a := assembler.New(&fakeFetcher{})
			_, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 0})

			Convey("Then it fails with the size violation", func() {
				So(err, ShouldEqual, assembler.ErrInvalidPageSize)
			})
		})

		Convey("When pages are fetched for a seed", func() {
			distance := seeded.PageDistance("abc123")
			f := &fakeFetcher{pages: map[int][]model.CatalogItem{
				1:            {poolItem(1, 80, 4.5)},
				1 + distance + 1: {poolItem(2, 40, 2.0)},
			}}
			a := assembler.New(f)
			pool, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 20})

			Convey("Then the seeded page spacing picks the pages", func() {
				So(err, ShouldBeNil)
				So(len(pool), ShouldEqual, 2)
				So(f.asked, ShouldHaveLength, 2)
				So(f.asked, ShouldContain, 1)
				So(f.asked, ShouldContain, 1+distance+1)
			})
		})

		Convey("When a duplicate id spans two pages", func() {
			distance := seeded.PageDistance("abc123")
			f := &fakeFetcher{pages: map[int][]model.CatalogItem{
				1:            {poolItem(1, 80, 4.5), poolItem(2, 40, 2.0)},
				1 + distance + 1: {poolItem(1, 60, 4.0)},
			}}
			a := assembler.New(f)
			pool, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 20})

			Convey("Then the higher-weight record survives", func() {
				So(err, ShouldBeNil)
				So(len(pool), ShouldEqual, 2)
				for _, it := range pool {
					if it.ID == 1 {
						So(it.Quality, ShouldEqual, 80)
						So(it.MergeWeight, ShouldEqual, 84.5)
					}
				}
			})
		})

		Convey("When one page fails", func() {
			distance := seeded.PageDistance("abc123")
			f := &fakeFetcher{
				pages: map[int][]model.CatalogItem{1: {poolItem(1, 80, 4.5)}},
				fail:  map[int]error{1 + distance + 1: errors.New("upstream 502")},
			}
			a := assembler.New(f)
			pool, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 20})

			Convey("Then the surviving page still forms the pool", func() {
				So(err, ShouldBeNil)
				So(len(pool), ShouldEqual, 1)
				So(pool[0].ID, ShouldEqual, 1)
			})
		})

		Convey("When every page fails", func() {
			f := &fakeFetcher{fail: map[int]error{}}
			distance := seeded.PageDistance("abc123")
			f.fail[1] = errors.New("down")
			f.fail[1+distance+1] = errors.New("down")
			a := assembler.New(f)
			pool, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 20})

			Convey("Then the pool is empty and no error surfaces", func() {
				So(err, ShouldBeNil)
				So(pool, ShouldBeEmpty)
			})
		})

		Convey("When more pool pages are configured", func() {
			f := &fakeFetcher{pages: map[int][]model.CatalogItem{}}
			a := assembler.New(f, assembler.WithPoolPages(4))
			_, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 3, PageSize: 20})

			Convey("Then one fetch per pool page goes out", func() {
				So(err, ShouldBeNil)
				So(f.asked, ShouldHaveLength, 4)

				distance := seeded.PageDistance("abc123")
				for i := 0; i < 4; i++ {
					So(f.asked, ShouldContain, 3+i*(distance+1))
				}
			})
		})

		Convey("When records without an id sneak in", func() {
			f := &fakeFetcher{pages: map[int][]model.CatalogItem{
				1: {{}, poolItem(7, 50, 3.0)},
			}}
			a := assembler.New(f)
			pool, err := a.Assemble(ctx, "abc123", assembler.PageRequest{Page: 1, PageSize: 20})

			Convey("Then they are dropped from the pool", func() {
				So(err, ShouldBeNil)
				So(len(pool), ShouldEqual, 1)
				So(pool[0].ID, ShouldEqual, 7)
			})
		})
	})
}
