package tabs

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/halolight/halolight/cmd/haloctl/internal/app"
	"github.com/halolight/halolight/cmd/haloctl/internal/tabs"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// TabsCmd is the parent command for tab bar operations
var TabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "Manage the persisted tab bar",
	Long: `Commands for opening, closing and renaming tabs. Every change is saved
to the storage backend and reported as the path the console would navigate to.`,
}

func init() {
	TabsCmd.AddCommand(listCmd)
	TabsCmd.AddCommand(openCmd)
	TabsCmd.AddCommand(closeCmd)
	TabsCmd.AddCommand(closeOthersCmd)
	TabsCmd.AddCommand(closeRightCmd)
	TabsCmd.AddCommand(closeAllCmd)
	TabsCmd.AddCommand(renameCmd)
	TabsCmd.AddCommand(activateCmd)
	TabsCmd.AddCommand(refreshCmd)

	openCmd.Flags().StringVar(&openTitle, "title", "", "Tab title (defaults to the path)")
	openCmd.Flags().StringVar(&openIcon, "icon", "", "Tab icon name")
	openCmd.Flags().BoolVar(&openPinned, "pinned", false, "Open the tab without a close button")
}

// printer reports navigation requests on the terminal.
type printer struct{}

func (printer) Navigate(path string) { pterm.Info.Printf("Navigate: %s\n", path) }
func (printer) Reload(path string)   { pterm.Info.Printf("Reload: %s\n", path) }

func manager(ctx context.Context) (*tabs.Manager, error) {
	return app.MustFromContext(ctx).Tabs(ctx, printer{})
}

func printTabs(m *tabs.Manager) {
	active := m.ActivePath()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACTIVE\tPATH\tTITLE\tCLOSABLE\tCACHED")
	for _, tab := range m.Tabs() {
		marker := ""
		if tab.Path == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", marker, tab.Path, tab.Title, tab.Closable, tab.Cached)
	}
	w.Flush()
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tabs",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		printTabs(m)
		return nil
	},
}

var (
	openTitle  string
	openIcon   string
	openPinned bool
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a tab, or activate it if already open",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		title := openTitle
		if title == "" {
			title = args[0]
		}
		m.Open(tabs.Tab{Path: args[0], Title: title, Icon: openIcon, Closable: !openPinned, Cached: true})
		printTabs(m)
		return nil
	},
}

var closeCmd = &cobra.Command{
	Use:   "close <path>",
	Short: "Close a tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.Close(args[0])
		printTabs(m)
		return nil
	},
}

var closeOthersCmd = &cobra.Command{
	Use:   "close-others <path>",
	Short: "Close every closable tab except the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.CloseOthers(args[0])
		printTabs(m)
		return nil
	},
}

var closeRightCmd = &cobra.Command{
	Use:   "close-right <path>",
	Short: "Close closable tabs to the right of the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.CloseRight(args[0])
		printTabs(m)
		return nil
	},
}

var closeAllCmd = &cobra.Command{
	Use:   "close-all",
	Short: "Close every closable tab",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.CloseAll()
		printTabs(m)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <path> <title>",
	Short: "Change a tab title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.Rename(args[0], args[1])
		printTabs(m)
		return nil
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate <path>",
	Short: "Make an open tab active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.Activate(args[0])
		printTabs(m)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <path>",
	Short: "Reload an open tab",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manager(cmd.Context())
		if err != nil {
			return err
		}
		m.Refresh(args[0])
		return nil
	},
}
