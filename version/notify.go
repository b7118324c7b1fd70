package version

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/icon"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/style"
	"github.com/aniresolve/aniresolve/util"
	"github.com/spf13/viper"
)

// Notify prints a notice to stderr when a newer release exists.
func Notify(fetcher network.Fetcher) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest(ctx, fetcher)
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	_, _ = fmt.Fprintf(os.Stderr, `
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/aniresolve/aniresolve/releases/tag/v"+version),
	)
}
