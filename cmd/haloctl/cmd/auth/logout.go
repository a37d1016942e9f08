package auth

import (
	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the active session",
	Long:  `Clears the active token and user. Remembered accounts stay available to "auth switch".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := app.MustFromContext(cmd.Context()).Session(cmd.Context())
		if err != nil {
			return err
		}
		if !session.IsAuthenticated() {
			pterm.Warning.Println("Not signed in")
			return nil
		}
		session.Logout()
		pterm.Success.Println("Signed out")
		return nil
	},
}
