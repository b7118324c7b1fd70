package hint

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/source"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHint(t *testing.T) {
	Convey("Given a working provider for a series", t, func() {
		err := Save("naruto", source.Vidoza, source.NativeSub)
		So(err, ShouldBeNil)

		Convey("When the hint is read back", func() {
			h, ok := Get("naruto").Get()

			Convey("Then the provider and language are remembered", func() {
				So(ok, ShouldBeTrue)
				So(h.Provider, ShouldEqual, source.Vidoza)
				So(h.Language, ShouldEqual, source.NativeSub)
				So(h.UpdatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When it is overwritten", func() {
			So(Save("naruto", source.VOE, source.NativeDub), ShouldBeNil)

			Convey("Then the latest provider wins", func() {
				So(Get("naruto").MustGet().Provider, ShouldEqual, source.VOE)
			})
		})

		Convey("When it is removed", func() {
			So(Remove("naruto"), ShouldBeNil)

			Convey("Then nothing is returned", func() {
				So(Get("naruto").IsPresent(), ShouldBeFalse)
			})
		})
	})

	Convey("Empty slugs are ignored", t, func() {
		So(Save("", source.VOE, source.NativeDub), ShouldBeNil)
		So(Get("").IsPresent(), ShouldBeFalse)
	})
}

func TestConcurrentSave(t *testing.T) {
	Convey("Given many series resolved at once", t, func() {
		const workers = 32

		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				slug := fmt.Sprintf("series-%d", i)
				for range 10 {
					if err := Save(slug, source.Vidoza, source.NativeSub); err != nil {
						errs[i] = err
						return
					}
					_ = Get(slug)
				}
			}(i)
		}
		wg.Wait()

		Convey("Then no hint is lost", func() {
			for _, err := range errs {
				So(err, ShouldBeNil)
			}

			hints, err := All()
			So(err, ShouldBeNil)
			for i := range workers {
				So(hints, ShouldContainKey, fmt.Sprintf("series-%d", i))
			}
		})

		Reset(func() {
			for i := range workers {
				_ = Remove(fmt.Sprintf("series-%d", i))
			}
		})
	})

	Convey("Changing the map returned by All leaves the store alone", t, func() {
		So(Save("bleach", source.VOE, source.NativeDub), ShouldBeNil)
		defer func() { _ = Remove("bleach") }()

		hints, err := All()
		So(err, ShouldBeNil)
		hints["bleach"].Provider = source.Vidmoly
		delete(hints, "bleach")

		So(Get("bleach").MustGet().Provider, ShouldEqual, source.VOE)
	})
}
