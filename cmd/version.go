package cmd

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"text/template"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version number")
	versionCmd.SetOut(os.Stdout)
}

type buildInfo struct {
	App       string
	Version   string
	Revision  string
	BuiltAt   string
	BuiltBy   string
	Go        string
	Platform  string
	Providers string
}

// currentBuild fills gaps in the linker-provided metadata from the embedded build info.
func currentBuild() buildInfo {
	info := buildInfo{
		App:      constant.App,
		Version:  constant.Version,
		Revision: constant.Revision,
		BuiltAt:  strings.TrimSpace(constant.BuiltAt),
		BuiltBy:  constant.BuiltBy,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Providers: strings.Join(lo.Map(source.KnownProviders(), func(p source.ProviderName, _ int) string {
			return p.String()
		}), ", "),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Revision == "unknown":
				info.Revision = s.Value
			case s.Key == "vcs.time" && info.BuiltAt == "unknown":
				info.BuiltAt = s.Value
			}
		}
	}
	return info
}

var versionTemplate = template.Must(template.New("version").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}     {{ bold .Version }}
  {{ faint "Revision" }}    {{ bold .Revision }}
  {{ faint "Built" }}       {{ bold .BuiltAt }} {{ faint "by" }} {{ bold .BuiltBy }}
  {{ faint "Go" }}          {{ bold .Go }} {{ faint "on" }} {{ bold .Platform }}
  {{ faint "Providers" }}   {{ .Providers }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build metadata",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer notify()
		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), currentBuild()))
	},
}
