package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/gameboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.RoundQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.TrophyCacheTTLSeconds, convey.ShouldEqual, 86_400)
			convey.So(cfg.HeavyGames, convey.ShouldContain, "Twilight Imperium")
			convey.So(cfg.HeavyGames, convey.ShouldHaveLength, 5)
			convey.So(cfg.ScoreTable, convey.ShouldResemble, map[string]int{"1": 9, "2": 7, "3": 5, "4": 3})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then each call returns an independent heavy list", func() {
			cfg.HeavyGames[0] = "Chess"
			other := config.New(context.Background())
			convey.So(other.HeavyGames[0], convey.ShouldEqual, "Scythe")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = " " },
			"zero queue":         func(c *config.Config) { c.RoundQueueSize = 0 },
			"zero workers":       func(c *config.Config) { c.WorkerCount = 0 },
			"zero dedupe":        func(c *config.Config) { c.DedupeSize = 0 },
			"negative ttl":       func(c *config.Config) { c.TrophyCacheTTLSeconds = -1 },
			"zero entries cap":   func(c *config.Config) { c.MaxStatisticEntries = 0 },
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the ttl is zero", func() {
			cfg.TrophyCacheTTLSeconds = 0

			convey.Convey("Then caching is disabled but the config is valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
