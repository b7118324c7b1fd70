package log

import (
	"testing"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)

		Convey("WithFields should still return a usable entry", func() {
			entry := WithFields(Fields{"provider": "VOE"})
			So(entry, ShouldNotBeNil)
			So(entry.Data["provider"], ShouldEqual, "VOE")
			So(func() { entry.Info("ignored") }, ShouldNotPanic)
		})
	})

	Convey("Given logging is enabled", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		defer viper.Set(key.LogsWrite, false)

		Convey("Setup should create the log file", func() {
			So(Setup(), ShouldBeNil)
			So(func() { Debugf("resolving %s", "x") }, ShouldNotPanic)
			enabled = false
		})
	})
}
