// Package cmd implements the aniresolve command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/icon"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/resolve"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/style"
	"github.com/aniresolve/aniresolve/version"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the icons variant")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().String("proxy", "", "Proxy URL for every request, e.g. socks5://127.0.0.1:9050")
	lo.Must0(viper.BindPFlag(key.NetworkProxy, rootCmd.PersistentFlags().Lookup("proxy")))

	rootCmd.PersistentFlags().Bool("tor", false, "Route requests through Tor and rotate the exit when blocked")
	lo.Must0(viper.BindPFlag(key.TorEnable, rootCmd.PersistentFlags().Lookup("tor")))

	rootCmd.PersistentFlags().String("base-url", "", "Base URL of the streaming aggregator")
	lo.Must0(viper.BindPFlag(key.CatalogBaseURL, rootCmd.PersistentFlags().Lookup("base-url")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		notify()
	})
}

var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Resolve anime episode pages into direct stream links",
	Long: style.Bold(constant.App) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Resolve anime episode pages into direct stream links"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// stack wires the resolution engine from the current configuration, flags included.
func stack() *resolve.Stack {
	s, err := resolve.FromConfig()
	handleErr(err)
	return s
}

func notify() {
	client, err := network.New(network.Options{})
	if err != nil {
		return
	}
	version.Notify(client)
}

// parseReference turns a positional argument into a reference. Slugs need season and episode.
func parseReference(arg string, season, episode int) source.MediaReference {
	ref, err := source.ParseReference(arg, season, episode)
	handleErr(err)
	return ref
}

func handleErr(err error) {
	if err == nil {
		return
	}

	log.Error(err)

	mark := icon.Fail
	if errors.Is(err, source.ErrBlocked) {
		mark = icon.Blocked
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(mark), strings.Trim(err.Error(), " \n"))
	os.Exit(1)
}
