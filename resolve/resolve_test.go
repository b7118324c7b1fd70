package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aniresolve/aniresolve/catalog"
	"github.com/aniresolve/aniresolve/config"
	"github.com/aniresolve/aniresolve/guard"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/provider"
	"github.com/aniresolve/aniresolve/redirect"
	"github.com/aniresolve/aniresolve/source"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

const episodePage = `<html><body>
<div class="series-title"><h1><span>Naruto</span></h1></div>
<div class="hosterSiteVideo">
  <div class="changeLanguageBox">
    <img data-lang-key="1"><img data-lang-key="3"><img data-lang-key="2">
  </div>
  <ul class="row">
    <li data-lang-key="1" data-link-target="/redirect/voe"><h4>VOE</h4></li>
    <li data-lang-key="3" data-link-target="/redirect/voe"><h4>VOE</h4></li>
    <li data-lang-key="1" data-link-target="/redirect/dood"><h4>Doodstream</h4></li>
    <li data-lang-key="2" data-link-target="/redirect/vidoza"><h4>Vidoza</h4></li>
    <li data-lang-key="1" data-link-target="/redirect/filemoon"><h4>Filemoon</h4></li>
    <li data-lang-key="1" data-link-target="/redirect/streamtape"><h4>Streamtape</h4></li>
  </ul>
</div>
</body></html>`

var providerOptions = provider.Options{Timeout: 2 * time.Second}

type fakeRotator struct {
	calls    atomic.Int32
	onRotate func()
	err      error
}

func (f *fakeRotator) Rotate(context.Context) error {
	f.calls.Add(1)
	if f.onRotate != nil {
		f.onRotate()
	}
	return f.err
}

func (f *fakeRotator) Enabled() bool { return true }

type aggregator struct {
	*httptest.Server
	blocked     atomic.Bool
	pageFetches atomic.Int32
}

func newAggregator() *aggregator {
	a := &aggregator{}
	mux := http.NewServeMux()

	mux.HandleFunc("/anime/stream/naruto/staffel-1/episode-1", func(w http.ResponseWriter, r *http.Request) {
		a.pageFetches.Add(1)
		if a.blocked.Load() {
			_, _ = w.Write([]byte(`<div class="messageAlert danger">Deine Anfrage wurde als Spam erkannt.</div>`))
			return
		}
		_, _ = w.Write([]byte(episodePage))
	})

	for name, embed := range map[string]string{
		"voe":        "/embed/voe",
		"dood":       "/embed/dood",
		"vidoza":     "/embed/vidoza",
		"filemoon":   "/embed/filemoon",
		"streamtape": "/embed/streamtape",
	} {
		mux.HandleFunc("/redirect/"+name, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, embed, http.StatusFound)
		})
	}

	mux.HandleFunc("/embed/voe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>This video was removed</html>`))
	})
	mux.HandleFunc("/embed/dood", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>Not found</html>`))
	})
	mux.HandleFunc("/embed/vidoza", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<video><source src="https://cdn.vidoza.example/v.mp4" type="video/mp4"></video>`))
	})
	mux.HandleFunc("/embed/streamtape", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<script>document.getElementById('robotlink').innerHTML = '//cdn.streamtape.example/get_video?id=1&token=' + ('xcdabc').substring(3);</script>`))
	})

	a.Server = httptest.NewServer(mux)
	return a
}

func newCoordinator(a *aggregator, rotator *fakeRotator) *Coordinator {
	client := lo.Must(network.New(network.Options{Timeout: time.Second}))
	g := guard.New(lo.Must(guard.ParseSignatures(config.DefaultSignatures))...)

	deps := Deps{
		Fetcher:   client,
		Catalog:   catalog.NewClient(client, catalog.NewParser(g), a.URL),
		Redirects: redirect.New(client, a.URL, redirect.DefaultMaxHops),
		Decode:    providerOptions,
	}
	if rotator != nil {
		deps.Rotator = rotator
	}
	return New(deps)
}

func naruto() source.MediaReference {
	return lo.Must(source.NewReference("naruto", 1, 1))
}

func TestResolve(t *testing.T) {
	Convey("Given an aggregator with several providers", t, func() {
		a := newAggregator()
		defer a.Close()

		c := newCoordinator(a, nil)
		ctx := context.Background()

		Convey("When the preferred provider works", func() {
			result, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.ForeignSub, Preferred: source.Vidoza})

			Convey("Then its direct link is returned", func() {
				So(err, ShouldBeNil)
				So(result.Provider, ShouldEqual, source.Vidoza)
				So(result.Link.URL, ShouldEqual, "https://cdn.vidoza.example/v.mp4")
				So(result.Link.URL, ShouldStartWith, "https")
				So(result.ID, ShouldNotBeBlank)
				So(result.Page.Title, ShouldEqual, "Naruto")
			})
		})

		Convey("When the first candidate with the language fails", func() {
			_, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.NativeDub, Preferred: source.VOE})

			Convey("Then its error is surfaced without trying others", func() {
				var attempt *source.AttemptError
				So(errors.As(err, &attempt), ShouldBeTrue)
				So(attempt.Provider, ShouldEqual, source.VOE)
				So(errors.Is(err, source.ErrPatternNotFound), ShouldBeTrue)
				So(source.IsProviderLocal(err), ShouldBeTrue)
			})
		})

		Convey("When the preferred provider lacks the language", func() {
			result, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.ForeignSub, Preferred: source.VOE})

			Convey("Then the next provider in the declared order is used", func() {
				So(err, ShouldBeNil)
				So(result.Provider, ShouldEqual, source.Vidoza)
				So(result.Attempts[0].Outcome, ShouldEqual, source.OutcomeSkipped)
			})
		})

		Convey("When the preferred provider has no decoder", func() {
			_, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.NativeDub, Preferred: "Filemoon"})

			Convey("Then it is reported as unsupported", func() {
				So(errors.Is(err, source.ErrProviderUnsupported), ShouldBeTrue)
				So(source.IsProviderLocal(err), ShouldBeTrue)
			})
		})

		Convey("When the caller drives the fallback", func() {
			result, err := Fallback(ctx, c, Request{Reference: naruto(), Language: source.NativeDub, Preferred: source.VOE})

			Convey("Then a later provider in the order succeeds", func() {
				So(err, ShouldBeNil)
				So(result.Provider, ShouldEqual, source.Streamtape)
				So(result.Link.URL, ShouldEqual, "https://cdn.streamtape.example/get_video?id=1&token=abc")
			})

			Convey("Then the failures are kept as attempts", func() {
				providers := lo.Map(result.Attempts, func(at source.Attempt, _ int) source.ProviderName { return at.Provider })
				So(providers, ShouldResemble, []source.ProviderName{source.VOE, source.Doodstream, source.Streamtape})
				So(result.Attempts[1].Err, ShouldNotBeNil)
			})

			Convey("Then the page is fetched once", func() {
				So(a.pageFetches.Load(), ShouldEqual, 1)
			})
		})

		Convey("When every candidate fails", func() {
			_, err := Fallback(ctx, c, Request{
				Reference: naruto(),
				Language:  source.NativeDub,
				Preferred: source.VOE,
				Fallback:  []source.ProviderName{source.Doodstream},
			})

			Convey("Then the fallback is exhausted", func() {
				var exhausted *ExhaustedError
				So(errors.As(err, &exhausted), ShouldBeTrue)
				So(exhausted.Attempts, ShouldHaveLength, 2)
				So(errors.Is(err, source.ErrTokenNotFound), ShouldBeTrue)
			})
		})

		Convey("When only providers outside the order offer the language", func() {
			page := &catalog.Page{
				Title: "Naruto",
				Providers: source.ProviderMap{
					source.VOE:     {source.NativeSub: a.URL + "/redirect/voe"},
					"Filemoon":     {source.NativeDub: a.URL + "/redirect/filemoon"},
					source.Vidmoly: {source.NativeDub: a.URL + "/redirect/vidmoly"},
				},
				Languages: []source.Language{source.NativeSub, source.NativeDub},
			}
			req := Request{Reference: naruto(), Language: source.NativeDub, Page: page, Fallback: []source.ProviderName{source.VOE}}

			Convey("Then it is reported as unsupported rather than unavailable", func() {
				_, err := c.Resolve(ctx, req)

				var unsupported *source.UnsupportedProviderError
				So(errors.As(err, &unsupported), ShouldBeTrue)
				So(unsupported.Provider, ShouldEqual, source.ProviderName("Filemoon"))
				So(errors.Is(err, source.ErrLanguageUnavailable), ShouldBeFalse)
				So(a.pageFetches.Load(), ShouldEqual, 0)
			})

			Convey("Then the caller-driven fallback reports the same", func() {
				_, err := Fallback(ctx, c, req)
				So(errors.Is(err, source.ErrProviderUnsupported), ShouldBeTrue)
			})
		})

		Convey("When the page lists only a provider without a decoder", func() {
			page := &catalog.Page{
				Title:     "Naruto",
				Providers: source.ProviderMap{"Filemoon": {source.NativeDub: a.URL + "/redirect/filemoon"}},
				Languages: []source.Language{source.NativeDub},
			}
			_, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.NativeDub, Page: page})

			Convey("Then it is reported as unsupported", func() {
				So(errors.Is(err, source.ErrProviderUnsupported), ShouldBeTrue)
				So(errors.Is(err, source.ErrLanguageUnavailable), ShouldBeFalse)
			})
		})

		Convey("When no provider offers the language", func() {
			page := &catalog.Page{
				Title:     "Naruto",
				Providers: source.ProviderMap{source.VOE: {source.NativeSub: a.URL + "/redirect/voe"}},
				Languages: []source.Language{source.NativeSub},
			}
			_, err := c.Resolve(ctx, Request{Reference: naruto(), Language: source.NativeDub, Page: page})

			Convey("Then the available languages are reported", func() {
				var unavailable *source.LanguageUnavailableError
				So(errors.As(err, &unavailable), ShouldBeTrue)
				So(unavailable.Available, ShouldResemble, []source.Language{source.NativeSub})
				So(a.pageFetches.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestRotation(t *testing.T) {
	Convey("Given a catalog page that is blocked", t, func() {
		a := newAggregator()
		defer a.Close()
		a.blocked.Store(true)
		ctx := context.Background()
		req := Request{Reference: naruto(), Language: source.ForeignSub, Preferred: source.Vidoza}

		Convey("When rotating clears the block", func() {
			rotator := &fakeRotator{onRotate: func() { a.blocked.Store(false) }}
			result, err := newCoordinator(a, rotator).Resolve(ctx, req)

			Convey("Then the resolution succeeds after exactly one rotation", func() {
				So(err, ShouldBeNil)
				So(result.Provider, ShouldEqual, source.Vidoza)
				So(rotator.calls.Load(), ShouldEqual, 1)
				So(a.pageFetches.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the page is still blocked after rotating", func() {
			rotator := &fakeRotator{}
			_, err := newCoordinator(a, rotator).Resolve(ctx, req)

			Convey("Then the second block is final", func() {
				So(errors.Is(err, source.ErrBlocked), ShouldBeTrue)
				So(rotator.calls.Load(), ShouldEqual, 1)
				So(a.pageFetches.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the rotation itself fails", func() {
			rotator := &fakeRotator{err: fmt.Errorf("control port refused")}
			_, err := newCoordinator(a, rotator).Resolve(ctx, req)

			Convey("Then the page is still retried once", func() {
				So(errors.Is(err, source.ErrBlocked), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "control port refused")
				So(a.pageFetches.Load(), ShouldEqual, 2)
			})
		})

		Convey("When no anonymizing proxy is configured", func() {
			_, err := newCoordinator(a, nil).Resolve(ctx, req)

			Convey("Then the block is returned without a retry", func() {
				So(errors.Is(err, source.ErrBlocked), ShouldBeTrue)
				So(a.pageFetches.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestTryOrder(t *testing.T) {
	Convey("TryOrder", t, func() {
		providers := source.ProviderMap{
			source.VOE:        {source.NativeDub: "a"},
			source.Vidoza:     {source.NativeDub: "b"},
			source.Streamtape: {source.NativeDub: "c"},
		}

		Convey("puts the preferred provider first and keeps the declared order", func() {
			order := TryOrder(source.Streamtape, []source.ProviderName{source.VOE, source.Doodstream, source.Vidoza, source.Streamtape}, providers)
			So(order, ShouldResemble, []source.ProviderName{source.Streamtape, source.VOE, source.Vidoza})
		})

		Convey("falls back to every known provider", func() {
			So(TryOrder("", nil, providers), ShouldResemble, []source.ProviderName{source.VOE, source.Streamtape, source.Vidoza})
		})

		Convey("drops a preferred provider the page does not list", func() {
			So(TryOrder(source.Luluvdo, []source.ProviderName{source.Vidoza}, providers), ShouldResemble, []source.ProviderName{source.Vidoza})
		})
	})
}

func TestMany(t *testing.T) {
	Convey("Given several requests", t, func() {
		a := newAggregator()
		defer a.Close()
		c := newCoordinator(a, nil)

		reqs := []Request{
			{Reference: naruto(), Language: source.ForeignSub, Preferred: source.Vidoza},
			{Reference: naruto(), Language: source.NativeDub, Preferred: source.VOE},
			{Reference: lo.Must(source.NewReference("missing", 1, 1)), Language: source.NativeDub},
		}

		outcomes := Many(context.Background(), reqs, 2, c.Resolve)

		Convey("Then every request has its own outcome in order", func() {
			So(outcomes, ShouldHaveLength, 3)
			So(outcomes[0].Err, ShouldBeNil)
			So(outcomes[0].Result.Provider, ShouldEqual, source.Vidoza)
			So(errors.Is(outcomes[1].Err, source.ErrPatternNotFound), ShouldBeTrue)
			So(errors.Is(outcomes[2].Err, source.ErrFetch), ShouldBeTrue)
		})
	})
}
