package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"

	"github.com/aniresolve/aniresolve/catalog"
	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/style"
	"github.com/aniresolve/aniresolve/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().IntP("season", "s", 1, "Season number, 0 for movies")
	catalogCmd.Flags().IntP("episode", "e", 1, "Episode number")
	catalogCmd.Flags().BoolP("json", "j", false, "Print the page as JSON")
	catalogCmd.SetOut(os.Stdout)
}

// pageReport is the JSON form of a parsed page. Redirect links are part of it, direct links never are.
type pageReport struct {
	*catalog.Page
	Providers map[source.ProviderName]map[string]string `json:"providers"`
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <url|slug>",
	Short: "Show the providers and languages an episode page offers",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref := parseReference(
			args[0],
			lo.Must(cmd.Flags().GetInt("season")),
			lo.Must(cmd.Flags().GetInt("episode")),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		page, err := stack().Page(ctx, ref)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			report := pageReport{Page: page, Providers: make(map[source.ProviderName]map[string]string)}
			for name, links := range page.Providers {
				report.Providers[name] = lo.MapKeys(links, func(_ string, l source.Language) string {
					return l.String()
				})
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(report))
			return
		}

		cmd.Println(style.Bold(page.Title) + " " + style.Faint(ref.String()))
		if page.EpisodeTitle != "" || page.EpisodeTitleForeign != "" {
			cmd.Println(style.Italic(strings.TrimSpace(page.EpisodeTitle + "  " + style.Faint(page.EpisodeTitleForeign))))
		}

		languages := page.Languages
		if len(languages) == 0 {
			languages = page.Providers.Languages()
		}

		headers := append([]string{"Provider"}, lo.Map(languages, func(l source.Language, _ int) string {
			return l.String()
		})...)

		rows := lo.Map(page.ProviderNames(), func(name source.ProviderName, _ int) []string {
			label := name.String()
			if !name.Known() {
				label = style.Faint(label + " (unsupported)")
			}

			row := []string{label}
			for _, l := range languages {
				_, ok := page.Providers.Link(name, l)
				row = append(row, lo.Ternary(ok, style.Fg(color.Green)("yes"), style.Faint("-")))
			}
			return row
		})

		cmd.Println(renderTable(headers, rows, nil))
		cmd.Println(style.Faint(util.Quantify(len(rows), "provider", "providers")))
	},
}
