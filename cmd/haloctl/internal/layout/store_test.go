package layout

import (
	"encoding/json"
	"testing"

	"github.com/halolight/halolight/cmd/haloctl/internal/logging"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, kv sdk.KeyValueStore) *Store {
	t.Helper()
	return NewStore(kv, logging.Discard())
}

func storedWidgets(t *testing.T, kv sdk.KeyValueStore) []Widget {
	t.Helper()
	raw, err := kv.Get(StorageKey)
	require.NoError(t, err)
	var ws []Widget
	require.NoError(t, json.Unmarshal([]byte(raw), &ws))
	return ws
}

func TestDefaultWidgets(t *testing.T) {
	ws := DefaultWidgets()
	require.Len(t, ws, 12)
	assert.Equal(t, "stats-1", ws[0].ID)
	assert.Equal(t, "calendar", ws[11].ID)
	for _, w := range ws {
		assert.Equal(t, w.ID, w.Widget.ID)
		assert.LessOrEqual(t, w.X+w.Cols, GridColumns, w.ID)
	}

	doc, err := json.Marshal(ws)
	require.NoError(t, err)
	assert.NoError(t, Validate(doc), "defaults must satisfy the layout schema")
}

func TestStore_LoadFallbacks(t *testing.T) {
	s := newStore(t, sdk.NewMemoryStore())
	assert.Equal(t, 12, s.Count())
	assert.False(t, s.Editing())

	kv := sdk.NewMemoryStore()
	require.NoError(t, kv.Set(StorageKey, "{broken"))
	assert.Equal(t, 12, newStore(t, kv).Count())
}

func TestStore_EditingSavesOnExit(t *testing.T) {
	kv := sdk.NewMemoryStore()
	s := newStore(t, kv)

	assert.True(t, s.ToggleEditing())
	moved := s.Widgets()[0]
	moved.X, moved.Y = 6, 20
	require.True(t, s.Move(moved))

	_, err := kv.Get(StorageKey)
	assert.ErrorIs(t, err, sdk.ErrNotFound, "moves are not persisted while editing")

	assert.False(t, s.ToggleEditing())
	ws := storedWidgets(t, kv)
	assert.Equal(t, 6, ws[0].X)
	assert.Equal(t, 20, ws[0].Y)

	assert.False(t, s.Move(Widget{ID: "missing"}))
}

func TestStore_Update(t *testing.T) {
	s := newStore(t, sdk.NewMemoryStore())
	s.Update(DefaultWidgets()[:2])
	assert.Equal(t, 2, s.Count())
}

func TestStore_AddRemove(t *testing.T) {
	kv := sdk.NewMemoryStore()
	s := newStore(t, kv)

	added, err := s.Add(Widget{X: 0, Y: 17, Cols: 4, Rows: 2, Widget: WidgetConfig{Type: WidgetTasks, Title: "More tasks"}})
	require.NoError(t, err)
	assert.Len(t, added.ID, 36)
	assert.Equal(t, added.ID, added.Widget.ID)
	assert.Len(t, storedWidgets(t, kv), 13)

	_, err = s.Add(added)
	assert.Error(t, err, "duplicate ids are rejected")

	_, err = s.Add(Widget{Widget: WidgetConfig{Type: "video"}})
	assert.Error(t, err)

	assert.True(t, s.Remove(added.ID))
	assert.Len(t, storedWidgets(t, kv), 12)
	assert.False(t, s.Remove("missing"))
}

func TestStore_Reset(t *testing.T) {
	kv := sdk.NewMemoryStore()
	s := newStore(t, kv)
	s.Remove("calendar")
	s.Reset()
	assert.Equal(t, DefaultWidgets(), s.Widgets())
	assert.Len(t, storedWidgets(t, kv), 12)
}

func TestStore_Import(t *testing.T) {
	kv := sdk.NewMemoryStore()
	s := newStore(t, kv)

	doc := `[{"id":"c","x":0,"y":0,"cols":12,"rows":4,"widget":{"id":"c","type":"calendar","title":"Calendar"}}]`
	require.NoError(t, s.Import([]byte(doc)))
	assert.Equal(t, 1, s.Count())
	assert.Len(t, storedWidgets(t, kv), 1)

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `[{`},
		{name: "not an array", doc: `{"id":"c"}`},
		{name: "unknown type", doc: `[{"id":"v","x":0,"y":0,"cols":2,"rows":2,"widget":{"id":"v","type":"video","title":"V"}}]`},
		{name: "too wide", doc: `[{"id":"w","x":0,"y":0,"cols":13,"rows":2,"widget":{"id":"w","type":"tasks","title":"W"}}]`},
		{name: "missing widget", doc: `[{"id":"w","x":0,"y":0,"cols":2,"rows":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Import([]byte(tt.doc)))
			assert.Equal(t, 1, s.Count(), "rejected imports leave the layout untouched")
		})
	}
}

func TestStore_ExportRoundTrip(t *testing.T) {
	s := newStore(t, sdk.NewMemoryStore())
	doc, err := s.Export()
	require.NoError(t, err)

	other := newStore(t, sdk.NewMemoryStore())
	other.Reset()
	other.Remove("stats-1")
	require.NoError(t, other.Import(doc))
	assert.Equal(t, 12, other.Count())
}

func TestStore_WidgetsAreCopies(t *testing.T) {
	s := newStore(t, sdk.NewMemoryStore())
	ws := s.Widgets()
	ws[0].Widget.Settings["value"] = "tampered"
	assert.Equal(t, "12,345", s.Widgets()[0].Widget.Settings["value"])
}

func TestParseWidgetType(t *testing.T) {
	wt, err := ParseWidgetType("chart-pie")
	require.NoError(t, err)
	assert.Equal(t, WidgetChartPie, wt)
	_, err = ParseWidgetType("pie")
	assert.Error(t, err)
}
