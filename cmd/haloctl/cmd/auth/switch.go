package auth

import (
	"fmt"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <account-id>",
	Short: "Make a remembered account active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := app.MustFromContext(cmd.Context()).Session(cmd.Context())
		if err != nil {
			return err
		}
		if !session.SwitchAccount(args[0]) {
			return fmt.Errorf("no remembered account with id %q", args[0])
		}
		pterm.Success.Printf("Switched to %s\n", session.User().DisplayLabel())
		return nil
	},
}
