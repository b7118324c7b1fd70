package cmd

import (
	"os"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/config"
	"github.com/aniresolve/aniresolve/style"
	"github.com/aniresolve/aniresolve/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// location is a path the where command can print.
type location struct {
	title string
	flag  string
	path  func() string
}

var locations = []location{
	{"Config file", "config", config.Path},
	{"Logs", "logs", where.Logs},
	{"Provider hints", "hints", where.Hints},
	{"Cache", "cache", where.Cache},
	{"Rotation lock", "lock", where.RotationLock},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().Bool(l.flag, false, "Print only the "+l.title+" path")
	}
	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string {
		return l.flag
	})...)

	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print where files are kept",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if l, ok := lo.Find(locations, func(l location) bool {
			return lo.Must(cmd.Flags().GetBool(l.flag))
		}); ok {
			cmd.Println(l.path())
			return
		}

		title := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, l := range locations {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s %s\n%s\n", title(l.title), style.Fg(color.Yellow)("--"+l.flag), l.path())
		}
	},
}
