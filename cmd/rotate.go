package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/aniresolve/aniresolve/auth"
	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/icon"
	"github.com/aniresolve/aniresolve/style"
	"github.com/aniresolve/aniresolve/tor"
	"github.com/aniresolve/aniresolve/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rotateCmd)
	rotateCmd.Flags().Duration("timeout", 30*time.Second, "Give up when the rotation takes longer")
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Ask Tor for a new exit identity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rotator := tor.FromConfig()
		if !rotator.Enabled() {
			handleErr(errors.New("tor is disabled, enable it with --tor or tor.enable"))
		}

		timeout, err := cmd.Flags().GetDuration("timeout")
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		erase := util.PrintErasable(fmt.Sprintf("%s Rotating identity...", icon.Get(icon.Rotate)))
		err = rotator.Rotate(ctx)
		erase()
		handleErr(err)

		fmt.Printf("%s new identity ready\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	rotateCmd.AddCommand(rotatePasswordCmd)
	rotatePasswordCmd.Flags().BoolP("delete", "d", false, "Remove the stored password")
}

var rotatePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Store the Tor control password in the system keyring",
	Long: "Store the Tor control password in the system keyring.\n" +
		"It is used whenever tor.control_password is empty.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("delete")) {
			handleErr(auth.DeleteControlPassword())
			fmt.Printf("%s removed the stored password\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		var password string
		handleErr(survey.AskOne(&survey.Password{
			Message: "Tor control password:",
			Help:    "The HashedControlPassword set in torrc, in plain text",
		}, &password))

		if password == "" {
			handleErr(errors.New("empty password"))
		}

		handleErr(auth.SetControlPassword(password))
		fmt.Printf("%s stored the password in the keyring\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
