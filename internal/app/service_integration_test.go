package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	service "github.com/okian/gameboard/internal/app"
	"github.com/okian/gameboard/internal/adapters/repository"
	"github.com/okian/gameboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// waitFor polls cond for up to two seconds.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func roundCount(ctx context.Context, s repository.Store) int {
	c, err := s.Counts(ctx)
	if err != nil {
		return -1
	}
	return c.Rounds
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service over a sqlite store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "gameboard.db"))
		So(err, ShouldBeNil)
		defer store.Close()

		So(store.SaveGroup(ctx, model.Group{ID: "g1", Players: []string{"a", "b", "c"}}), ShouldBeNil)
		So(store.SaveGame(ctx, model.Game{ID: "chess", Name: "Chess"}), ShouldBeNil)

		svc := service.New(store,
			service.WithClock(clock),
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(100),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting rounds end-to-end", func() {
			before, err := svc.Trophies(ctx, "g1")
			So(err, ShouldBeNil)
			set, _ := before.Lookup("recent", "Most Wins")
			So(set.Len(), ShouldEqual, 0)

			for i, winner := range []string{"a", "a", "b"} {
				res, err := svc.SubmitRound(ctx, model.RoundSubmission{
					SubmissionID: fmt.Sprintf("sub-%d", i),
					Round: model.Round{
						GameName: "Chess", GroupID: "g1", Date: now.Add(-time.Duration(i+1) * time.Hour),
						Ranks: []model.PlayerRank{rank(winner, 1), rank("c", 2)},
					},
				})
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
				So(res.RoundID, ShouldNotBeBlank)
			}

			Convey("Then the workers persist them and the trophy board is refreshed", func() {
				So(waitFor(func() bool { return roundCount(ctx, store) == 3 }), ShouldBeTrue)
				So(waitFor(func() bool {
					board, err := svc.Trophies(ctx, "g1")
					if err != nil {
						return false
					}
					set, _ := board.Lookup("recent", "Most Wins")
					return len(set.Gold) == 1 && set.Gold[0].SubjectID == "a"
				}), ShouldBeTrue)
			})

			Convey("Then resubmitting the same submission is a duplicate", func() {
				res, err := svc.SubmitRound(ctx, model.RoundSubmission{
					SubmissionID: "sub-0",
					Round: model.Round{
						GameName: "Chess", GroupID: "g1", Date: now,
						Ranks: []model.PlayerRank{rank("a", 1)},
					},
				})
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeTrue)
				So(waitFor(func() bool { return roundCount(ctx, store) == 3 }), ShouldBeTrue)
			})
		})

		Convey("When a submission is invalid", func() {
			_, err := svc.SubmitRound(ctx, model.RoundSubmission{
				Round: model.Round{GameName: "Chess", GroupID: "g1", Date: now},
			})

			Convey("Then it is rejected before queueing", func() {
				So(errors.Is(err, model.ErrInvalidRound), ShouldBeTrue)
			})
		})

		Convey("When a submission names an unknown group", func() {
			_, err := svc.SubmitRound(ctx, model.RoundSubmission{
				Round: model.Round{GameName: "Chess", GroupID: "nope", Date: now,
					Ranks: []model.PlayerRank{rank("a", 1)}},
			})

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a submission names an unknown game", func() {
			_, err := svc.SubmitRound(ctx, model.RoundSubmission{
				SubmissionID: "bad-game",
				Round: model.Round{GameName: "Go", GroupID: "g1", Date: now,
					Ranks: []model.PlayerRank{rank("a", 1)}},
			})

			Convey("Then ErrNotFound is returned and the id stays free", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(svc.GetStats()["dedupeLength"], ShouldEqual, int64(0))
			})
		})
	})
}

// gatedStore holds round writes until release is closed and fails them with
// failErr when set.
type gatedStore struct {
	repository.Store
	release chan struct{}
	failErr error
}

func (g *gatedStore) SaveRound(ctx context.Context, r model.Round) (model.Round, error) {
	if g.release != nil {
		<-g.release
	}
	if g.failErr != nil {
		return model.Round{}, g.failErr
	}
	return g.Store.SaveRound(ctx, r)
}

func seededMemoryStore(ctx context.Context) repository.Store {
	store := repository.NewMemoryStore()
	So(store.SaveGroup(ctx, model.Group{ID: "g1", Players: []string{"a", "b"}}), ShouldBeNil)
	So(store.SaveGame(ctx, model.Game{ID: "chess", Name: "Chess"}), ShouldBeNil)
	return store
}

func TestServicePersistFailure(t *testing.T) {
	Convey("Given a started service whose store rejects round writes", t, func() {
		ctx := context.Background()
		store := &gatedStore{Store: seededMemoryStore(ctx), failErr: errors.New("disk full")}
		svc := service.New(store, service.WithWorkerCount(1), service.WithClock(clock))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a queued submission cannot be persisted", func() {
			res, err := svc.SubmitRound(ctx, model.RoundSubmission{
				SubmissionID: "doomed",
				Round: model.Round{GameID: "chess", GroupID: "g1", Date: now,
					Ranks: []model.PlayerRank{rank("a", 1)}},
			})
			So(err, ShouldBeNil)
			So(res.Duplicate, ShouldBeFalse)

			Convey("Then its submission id is released for a retry", func() {
				So(waitFor(func() bool {
					return svc.GetStats()["dedupeLength"] == int64(0)
				}), ShouldBeTrue)
			})
		})
	})
}

func TestServiceShutdownDrains(t *testing.T) {
	Convey("Given a service started on a context that is canceled while rounds are queued", t, func() {
		ctx := context.Background()
		base := seededMemoryStore(ctx)
		store := &gatedStore{Store: base, release: make(chan struct{})}
		var releaseOnce sync.Once
		release := func() { releaseOnce.Do(func() { close(store.release) }) }
		defer release()

		svc := service.New(store, service.WithWorkerCount(1), service.WithQueueSize(10), service.WithClock(clock))
		runCtx, cancel := context.WithCancel(ctx)
		So(svc.Start(runCtx), ShouldBeNil)

		submit := func(id string) error {
			_, err := svc.SubmitRound(ctx, model.RoundSubmission{
				SubmissionID: id,
				Round: model.Round{ID: "round-" + id, GameID: "chess", GroupID: "g1", Date: now.Add(-time.Hour),
					Ranks: []model.PlayerRank{rank("a", 1), rank("b", 2)}},
			})
			return err
		}
		for i := 0; i < 3; i++ {
			So(submit(fmt.Sprintf("s%d", i)), ShouldBeNil)
		}
		cancel()
		So(waitFor(func() bool { return svc.GetStats()["accepting"] == false }), ShouldBeTrue)

		Convey("When a round arrives after the cancel and the service stops", func() {
			late := submit("late")
			release()
			svc.Stop()

			Convey("Then the late round is refused instead of silently dropped", func() {
				So(errors.Is(late, service.ErrBackpressure), ShouldBeTrue)
				_, err := base.Round(ctx, "round-late")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then every round queued before the cancel is persisted", func() {
				So(roundCount(ctx, base), ShouldEqual, 3)
				So(svc.GetStats()["dedupeLength"], ShouldEqual, int64(3))
			})
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given a service whose queue holds one submission and has no workers running", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.SaveGroup(ctx, model.Group{ID: "g1", Players: []string{"a"}}), ShouldBeNil)
		So(store.SaveGame(ctx, model.Game{ID: "chess", Name: "Chess"}), ShouldBeNil)
		svc := service.New(store, service.WithQueueSize(1), service.WithClock(clock))

		submit := func(id string) error {
			_, err := svc.SubmitRound(ctx, model.RoundSubmission{
				SubmissionID: id,
				Round: model.Round{GameID: "chess", GroupID: "g1", Date: now,
					Ranks: []model.PlayerRank{rank("a", 1)}},
			})
			return err
		}

		So(submit("s1"), ShouldBeNil)

		Convey("When the queue is full", func() {
			err := submit("s2")

			Convey("Then ErrBackpressure is returned and the id can be retried", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(errors.Is(submit("s2"), service.ErrBackpressure), ShouldBeTrue)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		So(store.SaveGroup(ctx, model.Group{ID: "g1", Players: []string{"a", "b"}}), ShouldBeNil)
		So(store.SaveGame(ctx, model.Game{ID: "chess", Name: "Chess"}), ShouldBeNil)

		svc := service.New(store, service.WithWorkerCount(4), service.WithQueueSize(1000), service.WithClock(clock))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines submit and read at once", func() {
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						_, _ = svc.SubmitRound(ctx, model.RoundSubmission{
							SubmissionID: fmt.Sprintf("g%d-%d", g, i),
							Round: model.Round{GameID: "chess", GroupID: "g1", Date: now.Add(-time.Minute),
								Ranks: []model.PlayerRank{rank("a", 1+(i%2)), rank("b", 2-(i%2))}},
						})
						_, _ = svc.Trophies(ctx, "g1")
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every submission is recorded once", func() {
				So(waitFor(func() bool { return roundCount(ctx, store) == 200 }), ShouldBeTrue)
			})
		})
	})
}
