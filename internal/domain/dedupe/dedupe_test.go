package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/robostorm/robostorm/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a key is claimed for the first time", func() {
			d := dedupe.NewInMemoryDeduper()
			claim := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it is newly recorded with a token", func() {
				So(claim.Seen, ShouldBeFalse)
				So(claim.Token, ShouldNotEqual, 0)
				So(claim.EventID, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second claim while in flight is pending", func() {
				again := d.SeenAndRecord(ctx, "key-1")
				So(again.Seen, ShouldBeTrue)
				So(again.Pending, ShouldNotBeNil)
				So(again.EventID, ShouldBeEmpty)
				So(d.Size(), ShouldEqual, 1)

				Convey("And Complete wakes it with the original event id", func() {
					d.Complete(ctx, "key-1", claim.Token, "evt-42")
					_, open := <-again.Pending
					So(open, ShouldBeFalse)

					after := d.SeenAndRecord(ctx, "key-1")
					So(after.Seen, ShouldBeTrue)
					So(after.Pending, ShouldBeNil)
					So(after.EventID, ShouldEqual, "evt-42")
				})

				Convey("And Unrecord wakes it and frees the key", func() {
					d.Unrecord(ctx, "key-1", claim.Token)
					_, open := <-again.Pending
					So(open, ShouldBeFalse)
					So(d.SeenAndRecord(ctx, "key-1").Seen, ShouldBeFalse)
				})
			})

			Convey("And after Unrecord the key can be claimed again", func() {
				d.Unrecord(ctx, "key-1", claim.Token)
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "key-1").Seen, ShouldBeFalse)
			})
		})

		Convey("When an in-flight key is evicted and claimed again", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))
			stale := d.SeenAndRecord(ctx, "k1")
			d.SeenAndRecord(ctx, "k2")
			fresh := d.SeenAndRecord(ctx, "k1")
			So(fresh.Seen, ShouldBeFalse)
			So(fresh.Token, ShouldNotEqual, stale.Token)

			Convey("Then the stale holder cannot settle the new claim", func() {
				d.Unrecord(ctx, "k1", stale.Token)
				d.Complete(ctx, "k1", stale.Token, "evt-stale")
				pending := d.SeenAndRecord(ctx, "k1")
				So(pending.Seen, ShouldBeTrue)
				So(pending.Pending, ShouldNotBeNil)

				d.Complete(ctx, "k1", fresh.Token, "evt-fresh")
				So(d.SeenAndRecord(ctx, "k1").EventID, ShouldEqual, "evt-fresh")
			})
		})

		Convey("When completing or unrecording an unknown key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.Complete(ctx, "nope", 1, "evt")
			d.Unrecord(ctx, "nope", 1)

			Convey("Then nothing is recorded", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, k := range []string{"k1", "k2", "k3"} {
				claim := d.SeenAndRecord(ctx, k)
				So(claim.Seen, ShouldBeFalse)
				d.Complete(ctx, k, claim.Token, "evt-"+k)
			}
			k4 := d.SeenAndRecord(ctx, "k4")

			Convey("Then the oldest key is evicted and the rest survive", func() {
				So(k4.Seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)

				claim := d.SeenAndRecord(ctx, "k3")
				So(claim.Seen, ShouldBeTrue)
				So(claim.EventID, ShouldEqual, "evt-k3")

				claim = d.SeenAndRecord(ctx, "k2")
				So(claim.Seen, ShouldBeTrue)
				So(claim.EventID, ShouldEqual, "evt-k2")

				So(d.SeenAndRecord(ctx, "k1").Seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When removing a key from the middle of the window", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			tokens := map[string]uint64{}
			for _, k := range []string{"k1", "k2", "k3"} {
				tokens[k] = d.SeenAndRecord(ctx, k).Token
			}
			d.Unrecord(ctx, "k2", tokens["k2"])
			d.SeenAndRecord(ctx, "k4")
			d.SeenAndRecord(ctx, "k5")

			Convey("Then eviction still follows claim order", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k3").Seen, ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k5").Seen, ShouldBeTrue)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const numKeys = 1000
			for i := 0; i < numKeys; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i)).Seen, ShouldBeFalse)
			}

			Convey("Then every key stays recorded", func() {
				So(d.Size(), ShouldEqual, int64(numKeys))
				So(d.SeenAndRecord(ctx, "key-0").Seen, ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		ctx := context.Background()
		const numGoroutines = 10

		Convey("When they all claim the same key", func() {
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners int
			)
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "shared").Seen {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one claim wins", func() {
				So(winners, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When they claim distinct keys", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("key-%d-%d", g, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then all keys are recorded", func() {
				So(d.Size(), ShouldEqual, int64(numGoroutines*50))
			})
		})
	})
}
