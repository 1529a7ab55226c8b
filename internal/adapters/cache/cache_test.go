package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/gameboard/internal/adapters/cache"
	"github.com/okian/gameboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryCache(t *testing.T) {
	Convey("Given a cache with a one hour TTL", t, func() {
		ctx := context.Background()
		c := cache.NewMemoryCache(cache.WithTTL(time.Hour))
		board := types.TrophyBoard{GroupID: "g1", Windows: []types.WindowTrophies{{Label: "recent"}}}

		Convey("When nothing is stored", func() {
			_, ok := c.Get(ctx, "g1")

			Convey("Then Get misses", func() {
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a board is stored under the current generation", func() {
			So(c.Set(ctx, "g1", c.Generation(ctx, "g1"), board), ShouldBeTrue)

			Convey("Then Get returns it", func() {
				got, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeTrue)
				So(got.GroupID, ShouldEqual, "g1")
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("Then other groups still miss", func() {
				_, ok := c.Get(ctx, "g2")
				So(ok, ShouldBeFalse)
			})

			Convey("Then invalidation removes it", func() {
				So(c.Invalidate(ctx, "g1"), ShouldBeTrue)
				_, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeFalse)
				So(c.Invalidate(ctx, "g1"), ShouldBeFalse)
			})

			Convey("Then a later write wins", func() {
				So(c.Set(ctx, "g1", c.Generation(ctx, "g1"), types.TrophyBoard{GroupID: "g1"}), ShouldBeTrue)
				got, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeTrue)
				So(got.Windows, ShouldBeEmpty)
			})
		})

		Convey("When the group is invalidated while a board is being built", func() {
			gen := c.Generation(ctx, "g1")
			c.Invalidate(ctx, "g1")
			stored := c.Set(ctx, "g1", gen, board)

			Convey("Then the stale board is refused", func() {
				So(stored, ShouldBeFalse)
				_, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeFalse)
			})

			Convey("Then a rebuild under the new generation is kept", func() {
				So(c.Generation(ctx, "g1"), ShouldEqual, gen+1)
				So(c.Set(ctx, "g1", c.Generation(ctx, "g1"), board), ShouldBeTrue)
				_, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeTrue)
			})

			Convey("Then other groups keep their generation", func() {
				So(c.Set(ctx, "g2", gen, board), ShouldBeTrue)
			})
		})
	})

	Convey("Given a cache with a short TTL", t, func() {
		ctx := context.Background()
		c := cache.NewMemoryCache(cache.WithTTL(50 * time.Millisecond))
		So(c.Set(ctx, "g1", 0, types.TrophyBoard{GroupID: "g1"}), ShouldBeTrue)

		Convey("When the TTL elapses", func() {
			time.Sleep(80 * time.Millisecond)

			Convey("Then the entry is gone", func() {
				_, ok := c.Get(ctx, "g1")
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When it is read before expiry", func() {
			_, ok := c.Get(ctx, "g1")

			Convey("Then the read does not extend its life", func() {
				So(ok, ShouldBeTrue)
				time.Sleep(80 * time.Millisecond)
				_, ok = c.Get(ctx, "g1")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestTrophyKey(t *testing.T) {
	Convey("TrophyKey prefixes the group id", t, func() {
		So(cache.TrophyKey("abc"), ShouldEqual, "trophies-abc")
	})
}

func TestMemoryCache_Concurrent(t *testing.T) {
	Convey("Concurrent writers and readers do not race", t, func() {
		ctx := context.Background()
		c := cache.NewMemoryCache()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := []string{"a", "b", "c", "d"}[i%4]
				c.Set(ctx, id, c.Generation(ctx, id), types.TrophyBoard{GroupID: id})
				c.Get(ctx, id)
				if i%5 == 0 {
					c.Invalidate(ctx, id)
				}
			}(i)
		}
		wg.Wait()
		So(c.Len(), ShouldBeBetweenOrEqual, 0, 4)
	})
}
