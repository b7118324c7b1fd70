package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/hint"
	"github.com/aniresolve/aniresolve/icon"
	"github.com/aniresolve/aniresolve/provider"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/style"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func providerNames() []string {
	return lo.Map(source.KnownProviders(), func(p source.ProviderName, _ int) string {
		return p.String()
	})
}

func completionProviders(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return providerNames(), cobra.ShellCompDirectiveNoFileComp
}

// suggestProvider picks the closest known provider name, preferring fuzzy matches.
func suggestProvider(name string) string {
	names := providerNames()
	if ranks := fuzzy.RankFindFold(name, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	return lo.MinBy(names, func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
}

// checkProvider rejects names no decoder exists for.
func checkProvider(name string) error {
	if source.ParseProviderName(name).Known() {
		return nil
	}

	return fmt.Errorf(
		"unknown provider %s, did you mean %s?",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(suggestProvider(name)),
	)
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.Flags().BoolP("json", "j", false, "Print the providers as JSON")
	providersCmd.SetOut(os.Stdout)
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported streaming hosts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		builtins := provider.Builtins()

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(builtins))
			return
		}

		rows := lo.Map(builtins, func(p provider.Provider, _ int) []string {
			return []string{style.Bold(p.Name.String()), p.Strategy, lo.Ternary(p.Referer == "", style.Faint("none"), p.Referer)}
		})
		cmd.Println(renderTable([]string{"Provider", "Strategy", "Referer"}, rows, nil))
	},
}

func init() {
	providersCmd.AddCommand(providersHintsCmd)
	providersHintsCmd.Flags().StringP("forget", "F", "", "Forget the remembered provider of a series")
	providersHintsCmd.SetOut(os.Stdout)
}

var providersHintsCmd = &cobra.Command{
	Use:   "hints",
	Short: "Show the provider remembered per series",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if slug := lo.Must(cmd.Flags().GetString("forget")); slug != "" {
			handleErr(hint.Remove(slug))
			cmd.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(slug))
			return
		}

		hints, err := hint.All()
		handleErr(err)

		if len(hints) == 0 {
			cmd.Println(style.Faint("no providers remembered yet"))
			return
		}

		slugs := lo.Keys(hints)
		sort.Strings(slugs)

		rows := lo.Map(slugs, func(slug string, _ int) []string {
			h := hints[slug]
			return []string{slug, h.Provider.String(), h.Language.String(), h.UpdatedAt.Format(time.DateTime)}
		})
		cmd.Println(renderTable([]string{"Series", "Provider", "Language", "Updated"}, rows, nil))
	},
}
