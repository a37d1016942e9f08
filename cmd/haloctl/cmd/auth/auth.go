package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for session and permission operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage signed-in accounts and check permissions",
	Long: `Commands for signing in and out, switching between remembered accounts
and evaluating permissions for the active session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(accountsCmd)
	AuthCmd.AddCommand(switchCmd)
	AuthCmd.AddCommand(removeCmd)
	AuthCmd.AddCommand(canCmd)
	AuthCmd.AddCommand(permissionsCmd)
}
