package guard

import (
	"errors"
	"testing"

	"github.com/aniresolve/aniresolve/config"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/source"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestGuard(t *testing.T) {
	Convey("Given the default signatures", t, func() {
		signatures, err := ParseSignatures(config.DefaultSignatures)
		So(err, ShouldBeNil)
		So(signatures, ShouldHaveLength, len(config.DefaultSignatures))
		g := New(signatures...)

		Convey("When a page carries the spam banner", func() {
			page := `<html><body><div class="messageAlert danger">Deine Anfrage wurde als Spam erkannt.</div></body></html>`

			Convey("Then it is blocked with the spam reason", func() {
				So(g.Inspect(page), ShouldResemble, Verdict{Blocked: true, Reason: "spam"})

				err := g.Check("https://aniworld.to/x", page)
				So(errors.Is(err, source.ErrBlocked), ShouldBeTrue)

				var blocked *source.BlockedError
				So(errors.As(err, &blocked), ShouldBeTrue)
				So(blocked.URL, ShouldEqual, "https://aniworld.to/x")
			})
		})

		Convey("When a page is a normal episode page", func() {
			page := `<div class="series-title"><h1><span>Naruto</span></h1></div>`

			Convey("Then it passes", func() {
				So(g.Inspect(page).Blocked, ShouldBeFalse)
				So(g.Check("https://aniworld.to/x", page), ShouldBeNil)
			})
		})

		Convey("Matching is case-sensitive", func() {
			So(g.Inspect("deine anfrage wurde als spam erkannt.").Blocked, ShouldBeFalse)
		})
	})

	Convey("ParseSignatures", t, func() {
		Convey("keeps '=' inside phrases", func() {
			signatures, err := ParseSignatures([]string{"captcha=a=b"})
			So(err, ShouldBeNil)
			So(signatures, ShouldResemble, []Signature{{Reason: "captcha", Phrase: "a=b"}})
		})

		Convey("defaults the reason", func() {
			signatures, err := ParseSignatures([]string{"Access denied", ""})
			So(err, ShouldBeNil)
			So(signatures, ShouldResemble, []Signature{{Reason: "blocked", Phrase: "Access denied"}})
		})

		Convey("rejects empty phrases", func() {
			_, err := ParseSignatures([]string{"spam="})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Update swaps the set", t, func() {
		g := New(Signature{Reason: "old", Phrase: "old phrase"})
		g.Update([]Signature{{Reason: "new", Phrase: "new phrase"}})

		So(g.Inspect("old phrase").Blocked, ShouldBeFalse)
		So(g.Inspect("a new phrase").Reason, ShouldEqual, "new")
		So(g.Signatures(), ShouldHaveLength, 1)
	})

	Convey("FromConfig reads guard.signatures", t, func() {
		viper.Set(key.GuardSignatures, []string{"ddos=DDoS-Guard"})
		defer viper.Set(key.GuardSignatures, config.DefaultSignatures)

		g, err := FromConfig()
		So(err, ShouldBeNil)
		So(g.Inspect("<title>DDoS-Guard</title>"), ShouldResemble, Verdict{Blocked: true, Reason: "ddos"})
	})
}
