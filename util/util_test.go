package util

import (
	"path/filepath"
	"testing"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "link", "links"), ShouldEqual, "1 link")
		So(Quantify(2, "link", "links"), ShouldEqual, "2 links")
		So(Quantify(0, "link", "links"), ShouldEqual, "0 links")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hints file"), ShouldEqual, "Hints file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestTerminalWidth(t *testing.T) {
	Convey("TerminalWidth falls back outside a terminal", t, func() {
		So(TerminalWidth(120), ShouldBeGreaterThan, 0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with a file", t, func() {
		fs := filesystem.API()
		dir := "/tmp/aniresolve-delete"
		file := filepath.Join(dir, "hints.json")
		lo.Must0(fs.MkdirAll(dir, 0o755))
		lo.Must0(afero.WriteFile(fs, file, []byte("{}"), 0o644))

		Convey("Deleting the file keeps the directory", func() {
			So(Delete(file), ShouldBeNil)
			So(lo.Must(afero.Exists(fs, file)), ShouldBeFalse)
			So(lo.Must(afero.Exists(fs, dir)), ShouldBeTrue)
		})

		Convey("Deleting the directory removes everything", func() {
			So(Delete(dir), ShouldBeNil)
			So(lo.Must(afero.Exists(fs, dir)), ShouldBeFalse)
		})

		Convey("Deleting a missing path fails", func() {
			So(Delete("/tmp/aniresolve-missing"), ShouldNotBeNil)
		})
	})
}
