package layout

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/cmd/haloctl/internal/layout"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/spf13/cobra"
)

// LayoutCmd is the parent command for dashboard layout operations
var LayoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Manage the dashboard widget layout",
	Long: `Commands for inspecting and editing the persisted dashboard layout.
Commands that change the layout require the dashboard:edit permission on the
active session.`,
}

func init() {
	LayoutCmd.AddCommand(showCmd)
	LayoutCmd.AddCommand(addCmd)
	LayoutCmd.AddCommand(removeCmd)
	LayoutCmd.AddCommand(moveCmd)
	LayoutCmd.AddCommand(resetCmd)
	LayoutCmd.AddCommand(importCmd)
	LayoutCmd.AddCommand(exportCmd)
}

func store(ctx context.Context) (*layout.Store, error) {
	return app.MustFromContext(ctx).Layout(ctx)
}

// editableStore returns the layout store after checking that the active
// session may edit the dashboard.
func editableStore(ctx context.Context) (*layout.Store, error) {
	p := app.MustFromContext(ctx)
	session, err := p.Session(ctx)
	if err != nil {
		return nil, err
	}
	decision := p.Guards().RequirePermission(session, sdk.Requirement{Permission: sdk.DashboardEdit})
	if !decision.Allowed {
		if !session.IsAuthenticated() {
			return nil, fmt.Errorf("not signed in (run haloctl auth login)")
		}
		return nil, fmt.Errorf("permission %s required", sdk.DashboardEdit)
	}
	return p.Layout(ctx)
}

func printWidgets(widgets []layout.Widget) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tX\tY\tCOLS\tROWS")
	for _, widget := range widgets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			widget.ID, widget.Widget.Type, widget.Widget.Title,
			widget.X, widget.Y, widget.Cols, widget.Rows)
	}
	w.Flush()
}
