package layout

import "fmt"

// WidgetType is the closed set of widget kinds the dashboard can render.
type WidgetType string

const (
	WidgetStats          WidgetType = "stats"
	WidgetChartLine      WidgetType = "chart-line"
	WidgetChartBar       WidgetType = "chart-bar"
	WidgetChartPie       WidgetType = "chart-pie"
	WidgetRecentActivity WidgetType = "recent-activity"
	WidgetQuickActions   WidgetType = "quick-actions"
	WidgetNotifications  WidgetType = "notifications"
	WidgetTasks          WidgetType = "tasks"
	WidgetCalendar       WidgetType = "calendar"
)

// WidgetTypes lists every widget type.
var WidgetTypes = []WidgetType{
	WidgetStats, WidgetChartLine, WidgetChartBar, WidgetChartPie,
	WidgetRecentActivity, WidgetQuickActions, WidgetNotifications,
	WidgetTasks, WidgetCalendar,
}

// ParseWidgetType validates a widget type name.
func ParseWidgetType(name string) (WidgetType, error) {
	for _, t := range WidgetTypes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown widget type %q", name)
}

// WidgetConfig describes what a widget shows.
type WidgetConfig struct {
	ID       string         `json:"id"`
	Type     WidgetType     `json:"type"`
	Title    string         `json:"title"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Widget places a widget on the 12-column dashboard grid.
type Widget struct {
	ID     string       `json:"id"`
	X      int          `json:"x"`
	Y      int          `json:"y"`
	Cols   int          `json:"cols"`
	Rows   int          `json:"rows"`
	Widget WidgetConfig `json:"widget"`
}

// GridColumns is the width of the dashboard grid.
const GridColumns = 12

func stat(id string, x int, title, value, change, changeType string) Widget {
	return Widget{
		ID: id, X: x, Y: 0, Cols: 3, Rows: 2,
		Widget: WidgetConfig{
			ID: id, Type: WidgetStats, Title: title,
			Settings: map[string]any{"value": value, "change": change, "changeType": changeType},
		},
	}
}

func block(id string, t WidgetType, x, y, cols, rows int, title string) Widget {
	return Widget{ID: id, X: x, Y: y, Cols: cols, Rows: rows, Widget: WidgetConfig{ID: id, Type: t, Title: title}}
}

// DefaultWidgets returns a fresh copy of the default dashboard.
func DefaultWidgets() []Widget {
	return []Widget{
		stat("stats-1", 0, "Total users", "12,345", "+12%", "positive"),
		stat("stats-2", 3, "Active users", "8,901", "+5%", "positive"),
		stat("stats-3", 6, "Total revenue", "¥45,678", "-3%", "negative"),
		stat("stats-4", 9, "Conversion rate", "3.2%", "No change", "neutral"),
		block("chart-line", WidgetChartLine, 0, 2, 6, 4, "Visit trends"),
		block("chart-pie", WidgetChartPie, 6, 2, 6, 4, "User distribution"),
		block("chart-bar", WidgetChartBar, 0, 6, 6, 4, "Monthly revenue"),
		block("recent-activity", WidgetRecentActivity, 6, 6, 6, 4, "Recent activity"),
		block("quick-actions", WidgetQuickActions, 0, 10, 4, 3, "Quick actions"),
		block("notifications", WidgetNotifications, 4, 10, 4, 3, "Notifications"),
		block("tasks", WidgetTasks, 8, 10, 4, 3, "Tasks"),
		block("calendar", WidgetCalendar, 0, 13, 12, 4, "Calendar"),
	}
}
