package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/resolve"
	"github.com/aniresolve/aniresolve/server"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("address", "a", "", "Listen address")
	lo.Must0(viper.BindPFlag(key.ServerAddress, serveCmd.Flags().Lookup("address")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolutions over HTTP",
	Long: "Serve resolutions over HTTP.\n\n" +
		"  GET /resolve?url=<episode url>\n" +
		"  GET /resolve?slug=<series>&season=<n>&episode=<n>[&language=..][&provider=..][&fallback=true]\n" +
		"  GET /healthz\n" +
		"  GET /metrics",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := stack()

		// block signatures follow edits of the config file
		s.Guard.Watch()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		address := viper.GetString(key.ServerAddress)
		cmd.Printf("listening on http://%s\n", address)

		srv := server.New(server.Options{
			Coordinator: s.Coordinator,
			NewRequest:  resolve.NewRequest,
			Remember:    resolve.Remember,
			Anonymized:  s.Client.Anonymized(),
		})
		handleErr(srv.Serve(ctx, address))
	},
}
