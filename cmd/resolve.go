package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"

	"github.com/aniresolve/aniresolve/inline"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/resolve"
	"github.com/aniresolve/aniresolve/source"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntP("season", "s", 1, "Season number, 0 for movies")
	resolveCmd.Flags().StringP("episodes", "e", "", "Episodes to resolve, e.g. 5, 1-12 or 1,3,8-10")

	resolveCmd.Flags().StringP("language", "l", "", "Desired language: native-dub, foreign-sub or native-sub")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("language", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(source.AllLanguages(), func(l source.Language, _ int) string {
			return l.String()
		}), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.ResolveLanguage, resolveCmd.Flags().Lookup("language")))

	resolveCmd.Flags().StringP("provider", "p", "", "Preferred provider")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("provider", completionProviders))
	lo.Must0(viper.BindPFlag(key.ResolveProvider, resolveCmd.Flags().Lookup("provider")))

	resolveCmd.Flags().IntP("workers", "w", 0, "Concurrent resolutions for several episodes")
	lo.Must0(viper.BindPFlag(key.ResolveWorkers, resolveCmd.Flags().Lookup("workers")))

	resolveCmd.Flags().BoolP("fallback", "f", false, "Move on to the next provider when one fails")
	resolveCmd.Flags().BoolP("json", "j", false, "Print the results as JSON")

	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url|slug>",
	Short: "Resolve an episode page into a direct stream link",
	Example: "  aniresolve resolve https://aniworld.to/anime/stream/one-piece/staffel-2/episode-7\n" +
		"  aniresolve resolve one-piece -s 2 -e 1-3 -p vidoza --fallback --json",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		provider := viper.GetString(key.ResolveProvider)
		if cmd.Flags().Changed("provider") {
			handleErr(checkProvider(provider))
		}

		refs, err := references(cmd, args[0])
		handleErr(err)

		requests := make([]resolve.Request, 0, len(refs))
		for _, ref := range refs {
			req, err := resolve.NewRequest(ref)
			handleErr(err)

			// an explicit provider flag beats a remembered hint
			if cmd.Flags().Changed("provider") {
				req.Preferred = source.ParseProviderName(provider)
			}
			requests = append(requests, req)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s := stack()
		outcomes, err := inline.Run(ctx, s.Coordinator, &inline.Options{
			Out:      cmd.OutOrStdout(),
			Requests: requests,
			Json:     lo.Must(cmd.Flags().GetBool("json")),
			Fallback: lo.Must(cmd.Flags().GetBool("fallback")),
			Workers:  viper.GetInt(key.ResolveWorkers),
		})

		for _, o := range outcomes {
			if o.Err == nil {
				if rerr := resolve.Remember(o.Request, o.Result); rerr != nil {
					log.Warn(rerr)
				}
			}
		}

		if errors.Is(err, inline.ErrPartial) {
			os.Exit(1)
		}
		handleErr(err)
	},
}

// references expands the argument into one reference per selected episode.
// URLs always address a single episode.
func references(cmd *cobra.Command, arg string) ([]source.MediaReference, error) {
	season := lo.Must(cmd.Flags().GetInt("season"))
	selector := lo.Must(cmd.Flags().GetString("episodes"))

	if ref, err := source.ReferenceFromURL(arg); err == nil {
		if selector != "" {
			return nil, errors.New("--episodes cannot be combined with a url")
		}
		return []source.MediaReference{ref}, nil
	}

	if selector == "" {
		return nil, errors.New("--episodes is required when resolving by slug")
	}
	return inline.References(arg, season, selector)
}

func init() {
	resolveCmd.AddCommand(resolveSchemaCmd)
	resolveSchemaCmd.SetOut(os.Stdout)
}

var resolveSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the --json output",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&inline.Output{})
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(schema))
	},
}
