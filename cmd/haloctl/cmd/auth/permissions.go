package auth

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var permissionsRole string

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "List the permission catalog and role grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		enforcer, err := app.MustFromContext(cmd.Context()).Enforcer()
		if err != nil {
			return err
		}

		roles := sdk.Roles
		if permissionsRole != "" {
			role, err := sdk.ParseRole(permissionsRole)
			if err != nil {
				return err
			}
			roles = []sdk.Role{role}
		} else {
			pterm.DefaultSection.Println("Permission Catalog")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PERMISSION\tDESCRIPTION")
			for _, perm := range sdk.CatalogPermissions() {
				desc, _ := sdk.Describe(perm)
				fmt.Fprintf(w, "%s\t%s\n", perm, desc)
			}
			w.Flush()
		}

		pterm.DefaultSection.Println("Role Grants")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROLE\tNAME\tPERMISSIONS")
		for _, role := range roles {
			perms, err := enforcer.RolePermissions(role)
			if err != nil {
				return fmt.Errorf("failed to read grants for %s: %w", role, err)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", role, role.DisplayName(), joinOrDash(perms))
		}
		w.Flush()
		return nil
	},
}

func init() {
	permissionsCmd.Flags().StringVar(&permissionsRole, "role", "", "Only show grants for this role")
}
