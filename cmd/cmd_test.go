package cmd

import (
	"strings"
	"testing"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/key"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSuggestProvider(t *testing.T) {
	Convey("Provider suggestions", t, func() {
		So(suggestProvider("dood"), ShouldEqual, "Doodstream")
		So(suggestProvider("vidoz"), ShouldEqual, "Vidoza")
		So(suggestProvider("streamtap"), ShouldEqual, "Streamtape")

		Convey("Typos fall back to the edit distance", func() {
			So(suggestProvider("vidmloy"), ShouldEqual, "Vidmoly")
		})
	})

	Convey("checkProvider", t, func() {
		So(checkProvider("voe"), ShouldBeNil)
		So(checkProvider("SPEEDFILES"), ShouldBeNil)

		err := checkProvider("filemoon")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "did you mean")
	})
}

func TestValidateValue(t *testing.T) {
	Convey("Config values are validated before they are written", t, func() {
		So(validateValue(key.ResolveLanguage, "foreign-sub"), ShouldBeNil)
		So(validateValue(key.ResolveLanguage, "klingon"), ShouldNotBeNil)

		So(validateValue(key.ResolveProvider, "vidoza"), ShouldBeNil)
		So(validateValue(key.ResolveFallbackOrder, []string{"VOE", "nope"}), ShouldNotBeNil)

		So(validateValue(key.GuardSignatures, []string{"spam=Spam erkannt"}), ShouldBeNil)
		So(validateValue(key.GuardSignatures, []string{"spam="}), ShouldNotBeNil)

		So(validateValue(key.NetworkTimeout, 30), ShouldBeNil)
	})
}

func TestReferences(t *testing.T) {
	Convey("Given the resolve command flags", t, func() {
		flags := resolveCmd.Flags()
		reset := func() {
			_ = flags.Set("season", "1")
			_ = flags.Set("episodes", "")
		}
		reset()
		defer reset()

		Convey("A url is a single reference", func() {
			refs, err := references(resolveCmd, "https://aniworld.to/anime/stream/one-piece/staffel-2/episode-7")
			So(err, ShouldBeNil)
			So(refs, ShouldHaveLength, 1)
			So(refs[0].Slug(), ShouldEqual, "one-piece")
		})

		Convey("A url with an episode selector is rejected", func() {
			_ = flags.Set("episodes", "1-2")
			_, err := references(resolveCmd, "https://aniworld.to/anime/stream/one-piece/staffel-2/episode-7")
			So(err, ShouldNotBeNil)
		})

		Convey("A slug needs an episode selector", func() {
			_, err := references(resolveCmd, "one-piece")
			So(err, ShouldNotBeNil)
		})

		Convey("A slug expands the selector", func() {
			_ = flags.Set("season", "2")
			_ = flags.Set("episodes", "1-3,7")
			refs, err := references(resolveCmd, "one-piece")
			So(err, ShouldBeNil)
			So(refs, ShouldHaveLength, 4)
			So(refs[3].String(), ShouldEqual, "one-piece S02E07")
		})
	})
}

func TestRenderTable(t *testing.T) {
	Convey("Tables carry headers and every cell", t, func() {
		out := renderTable([]string{"Provider", "Languages"}, [][]string{{"VOE", "native-dub"}, {"Vidoza"}}, nil)
		So(out, ShouldContainSubstring, "VOE")
		So(out, ShouldContainSubstring, "Vidoza")
		So(strings.ToLower(out), ShouldContainSubstring, "provider")
		So(renderTable(nil, nil, nil), ShouldBeEmpty)
	})
}
