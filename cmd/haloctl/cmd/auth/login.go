package auth

import (
	"fmt"
	"time"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/cmd/haloctl/internal/directory"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and make the account active",
	Long: `Authenticates against the built-in demo directory, issues a signed token
and stores the account as the active session. Signing in again with the same
account refreshes its token in place; other remembered accounts are kept.

Demo accounts: admin@halolight.h7ml.cn, manager@halolight.h7ml.cn and
user@halolight.h7ml.cn, all with the password "` + directory.DefaultDemoPassword + `".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := app.MustFromContext(cmd.Context())

		dir, err := p.Directory()
		if err != nil {
			return fmt.Errorf("failed to load directory: %w", err)
		}
		user, err := dir.Authenticate(loginEmail, loginPassword)
		if err != nil {
			return err
		}

		tokens, err := p.Tokens()
		if err != nil {
			return err
		}
		token, expiresAt, err := tokens.Issue(user)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}

		session, err := p.Session(cmd.Context())
		if err != nil {
			return err
		}
		if err := session.SetAuth(token, *user); err != nil {
			return err
		}

		pterm.Success.Printf("Signed in as %s (%s)\n", user.DisplayLabel(), user.Role.DisplayName())
		pterm.Info.Printf("Token expires at: %s\n", expiresAt.Format(time.RFC1123))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
