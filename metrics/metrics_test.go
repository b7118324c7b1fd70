package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a resolved attempt", t, func() {
		before := testutil.ToFloat64(Attempts.WithLabelValues("VOE", "resolved"))
		Attempts.WithLabelValues("VOE", "resolved").Inc()
		Resolutions.WithLabelValues("resolved").Inc()

		Convey("Then the counter moves", func() {
			So(testutil.ToFloat64(Attempts.WithLabelValues("VOE", "resolved")), ShouldEqual, before+1)
		})

		Convey("Then the handler exposes it", func() {
			rec := httptest.NewRecorder()
			Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

			body, _ := io.ReadAll(rec.Body)
			So(rec.Code, ShouldEqual, 200)
			So(string(body), ShouldContainSubstring, `aniresolve_attempts_total{outcome="resolved",provider="VOE"}`)
			So(string(body), ShouldContainSubstring, "go_goroutines")
		})
	})
}
