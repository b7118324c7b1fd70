package cmd

import (
	"fmt"
	"os"

	"github.com/aniresolve/aniresolve/icon"
	"github.com/aniresolve/aniresolve/util"
	"github.com/aniresolve/aniresolve/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// clearable is a file or directory the clear command can remove.
type clearable struct {
	name  string
	flag  string
	short string
	path  func() string
}

var clearables = []clearable{
	{"cache directory", "cache", "c", where.Cache},
	{"provider hints", "hints", "p", where.Hints},
	{"logs", "logs", "l", where.Logs},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	for _, c := range clearables {
		clearCmd.Flags().BoolP(c.flag, c.short, false, "Remove the "+c.name)
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached files, provider hints or logs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		selected := lo.Filter(clearables, func(c clearable, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(c.flag))
		})
		if len(selected) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, c := range selected {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), c.name))
			err := util.Delete(c.path())
			erase()
			if err != nil && !os.IsNotExist(err) {
				handleErr(err)
			}
			done("%s cleared", util.Capitalize(c.name))
		}
	},
}
