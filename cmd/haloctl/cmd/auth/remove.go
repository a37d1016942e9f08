package auth

import (
	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <account-id>",
	Short: "Forget a remembered account",
	Long: `Removes an account from the remembered list. Removing the active account
activates the first remaining one, or signs out when none are left.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := app.MustFromContext(cmd.Context()).Session(cmd.Context())
		if err != nil {
			return err
		}
		session.RemoveAccount(args[0])

		if user := session.User(); session.IsAuthenticated() && user != nil {
			pterm.Info.Printf("Active account: %s\n", user.DisplayLabel())
		} else {
			pterm.Info.Println("Signed out")
		}
		return nil
	},
}
