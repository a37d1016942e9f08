package layout

import (
	"fmt"
	"os"

	"github.com/halolight/halolight/cmd/haloctl/internal/layout"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List dashboard widgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store(cmd.Context())
		if err != nil {
			return err
		}
		printWidgets(s.Widgets())
		return nil
	},
}

var (
	addType  string
	addTitle string
	addID    string
	addX     int
	addY     int
	addCols  int
	addRows  int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a widget",
	RunE: func(cmd *cobra.Command, args []string) error {
		widgetType, err := layout.ParseWidgetType(addType)
		if err != nil {
			return err
		}
		s, err := editableStore(cmd.Context())
		if err != nil {
			return err
		}
		added, err := s.Add(layout.Widget{
			ID: addID, X: addX, Y: addY, Cols: addCols, Rows: addRows,
			Widget: layout.WidgetConfig{Type: widgetType, Title: addTitle},
		})
		if err != nil {
			return err
		}
		pterm.Success.Printf("Added widget %s\n", added.ID)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <widget-id>",
	Short: "Remove a widget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := editableStore(cmd.Context())
		if err != nil {
			return err
		}
		if !s.Remove(args[0]) {
			return fmt.Errorf("no widget with id %q", args[0])
		}
		pterm.Success.Printf("Removed widget %s\n", args[0])
		return nil
	},
}

var (
	moveX    int
	moveY    int
	moveCols int
	moveRows int
)

var moveCmd = &cobra.Command{
	Use:   "move <widget-id>",
	Short: "Reposition or resize a widget",
	Long:  `Updates the grid position of a widget. Unset flags keep the current value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := editableStore(cmd.Context())
		if err != nil {
			return err
		}

		var target *layout.Widget
		for _, w := range s.Widgets() {
			if w.ID == args[0] {
				target = &w
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no widget with id %q", args[0])
		}

		flags := cmd.Flags()
		if flags.Changed("x") {
			target.X = moveX
		}
		if flags.Changed("y") {
			target.Y = moveY
		}
		if flags.Changed("cols") {
			target.Cols = moveCols
		}
		if flags.Changed("rows") {
			target.Rows = moveRows
		}
		if target.Cols < 1 || target.X+target.Cols > layout.GridColumns {
			return fmt.Errorf("widget must fit within %d columns", layout.GridColumns)
		}

		s.Move(*target)
		s.Save()
		printWidgets(s.Widgets())
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := editableStore(cmd.Context())
		if err != nil {
			return err
		}
		s.Reset()
		pterm.Success.Printf("Restored %d default widgets\n", s.Count())
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the layout with a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		document, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read layout: %w", err)
		}
		s, err := editableStore(cmd.Context())
		if err != nil {
			return err
		}
		if err := s.Import(document); err != nil {
			return err
		}
		pterm.Success.Printf("Imported %d widgets\n", s.Count())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the layout as JSON to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store(cmd.Context())
		if err != nil {
			return err
		}
		document, err := s.Export()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println(string(document))
			return nil
		}
		if err := os.WriteFile(args[0], document, 0644); err != nil {
			return fmt.Errorf("failed to write layout: %w", err)
		}
		pterm.Success.Printf("Exported %d widgets to %s\n", s.Count(), args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addType, "type", "", "Widget type (stats, chart-line, chart-bar, chart-pie, recent-activity, quick-actions, notifications, tasks, calendar)")
	addCmd.Flags().StringVar(&addTitle, "title", "", "Widget title")
	addCmd.Flags().StringVar(&addID, "id", "", "Widget id (generated when empty)")
	addCmd.Flags().IntVar(&addX, "x", 0, "Grid column")
	addCmd.Flags().IntVar(&addY, "y", 0, "Grid row")
	addCmd.Flags().IntVar(&addCols, "cols", 4, "Width in columns")
	addCmd.Flags().IntVar(&addRows, "rows", 3, "Height in rows")
	_ = addCmd.MarkFlagRequired("type")

	moveCmd.Flags().IntVar(&moveX, "x", 0, "Grid column")
	moveCmd.Flags().IntVar(&moveY, "y", 0, "Grid row")
	moveCmd.Flags().IntVar(&moveCols, "cols", 0, "Width in columns")
	moveCmd.Flags().IntVar(&moveRows, "rows", 0, "Height in rows")
}
