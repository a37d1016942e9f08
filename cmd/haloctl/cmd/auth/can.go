package auth

import (
	"fmt"
	"strings"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var canAny bool

var canCmd = &cobra.Command{
	Use:   "can <permission>...",
	Short: "Check permissions for the active session",
	Long: `Checks whether the active session holds the given permissions. Several
permissions must all be held unless --any is set. Exits non-zero when denied.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := app.MustFromContext(cmd.Context()).Session(cmd.Context())
		if err != nil {
			return err
		}

		var granted bool
		switch {
		case len(args) == 1:
			granted = session.HasPermission(args[0])
		case canAny:
			granted = session.HasAnyPermission(args)
		default:
			granted = session.HasAllPermissions(args)
		}

		subject := strings.Join(args, ", ")
		if !granted {
			return fmt.Errorf("denied: %s", subject)
		}
		pterm.Success.Printf("granted: %s\n", subject)
		return nil
	},
}

func init() {
	canCmd.Flags().BoolVar(&canAny, "any", false, "Grant when any one of the permissions is held")
}
