package auth

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/hashicorp/go-bexpr"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var accountsFilter string

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List remembered accounts",
	Long: `Lists every account that has signed in and not been removed.

Use --filter with a boolean expression over the columns id, label, email,
name, role and active, for example:

  haloctl auth accounts --filter 'role == "admin" or active == true'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := app.MustFromContext(cmd.Context()).Session(cmd.Context())
		if err != nil {
			return err
		}

		accounts, err := filterAccounts(session.Accounts(), activeID(session), accountsFilter)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			pterm.Warning.Println("No accounts")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ACTIVE\tID\tLABEL\tEMAIL\tROLE")
		for _, row := range accounts {
			marker := ""
			if row["active"] == true {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, row["id"], row["label"], row["email"], row["role"])
		}
		w.Flush()
		return nil
	},
}

func activeID(session *sdk.SessionStore) string {
	if active := session.ActiveAccount(); active != nil {
		return active.ID
	}
	return ""
}

// accountRow flattens an account into the fields accepted by --filter.
func accountRow(a sdk.Account, activeID string) map[string]any {
	return map[string]any{
		"id":     a.ID,
		"label":  a.Label,
		"email":  a.User.Email,
		"name":   a.User.Name,
		"role":   string(a.User.Role),
		"active": a.ID == activeID,
	}
}

func filterAccounts(accounts []sdk.Account, activeID, filter string) ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, accountRow(a, activeID))
	}

	filter = strings.TrimSpace(filter)
	if filter == "" {
		return rows, nil
	}

	evaluator, err := bexpr.CreateEvaluator(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	matched := rows[:0]
	for _, row := range rows {
		ok, err := evaluator.Evaluate(row)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate filter: %w", err)
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func init() {
	accountsCmd.Flags().StringVar(&accountsFilter, "filter", "", "Boolean expression over id, label, email, name, role and active")
}
