package auth

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := app.MustFromContext(cmd.Context())
		session, err := p.Session(cmd.Context())
		if err != nil {
			return err
		}

		user := session.User()
		if !session.IsAuthenticated() || user == nil {
			return fmt.Errorf("not signed in")
		}

		pterm.DefaultSection.Println("Session")
		pterm.Info.Printf("User: %s <%s>\n", user.DisplayLabel(), user.Email)
		pterm.Info.Printf("Role: %s\n", user.Role.DisplayName())
		if active := session.ActiveAccount(); active != nil {
			pterm.Info.Printf("Account: %s\n", active.ID)
		}

		tokens, err := p.Tokens()
		if err != nil {
			return err
		}
		if _, err := tokens.Verify(session.Token()); err != nil {
			pterm.Warning.Printf("Stored token is no longer valid: %v\n", err)
		}

		pterm.DefaultSection.Println("Effective Permissions")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tDIRECT\tGRANTED")
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			user.Role,
			joinOrDash(user.Permissions),
			joinOrDash(grantedCatalog(session)),
		)
		w.Flush()
		return nil
	},
}

func grantedCatalog(session sdk.SessionView) []string {
	var granted []string
	for _, perm := range sdk.CatalogPermissions() {
		if session.HasPermission(perm) {
			granted = append(granted, perm)
		}
	}
	return granted
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
