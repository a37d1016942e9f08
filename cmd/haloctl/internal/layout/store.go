package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/halolight/halolight/cmd/haloctl/internal/db/bunx"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// StorageKey is the key holding the persisted layout.
const StorageKey = "halolight-dashboard-layout"

//go:embed layout.schema.json
var layoutSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func layoutSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(layoutSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse layout schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.DefaultDraft(jsonschema.Draft7)
		if err := compiler.AddResource("layout.schema.json", parsed); err != nil {
			schemaErr = fmt.Errorf("add layout schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("layout.schema.json")
	})
	return schema, schemaErr
}

// Validate checks a layout document against the layout schema.
func Validate(document []byte) error {
	s, err := layoutSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(document))
	if err != nil {
		return fmt.Errorf("parse layout document: %w", err)
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	return nil
}

// Store holds the dashboard widget layout and the editing flag.
// Position changes stay in memory until editing ends or Save is called;
// adding, removing and resetting widgets save immediately.
type Store struct {
	mu      sync.Mutex
	kv      sdk.KeyValueStore
	logger  *slog.Logger
	widgets []Widget
	editing bool
}

// NewStore loads the layout from kv, falling back to DefaultWidgets when
// the stored value is missing or corrupt.
func NewStore(kv sdk.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}
	s.widgets = s.load()
	return s
}

// Widgets returns a copy of the current layout.
func (s *Store) Widgets() []Widget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneWidgets(s.widgets)
}

// Count returns the number of widgets.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.widgets)
}

// Editing reports whether the dashboard is in edit mode.
func (s *Store) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

// ToggleEditing flips edit mode and saves the layout when leaving it.
func (s *Store) ToggleEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = !s.editing
	if !s.editing {
		s.save()
	}
	return s.editing
}

// Update replaces the whole layout in memory.
func (s *Store) Update(widgets []Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = cloneWidgets(widgets)
}

// Move replaces the widget with the same id in memory.
// It reports whether the widget was found.
func (s *Store) Move(widget Widget) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(widget.ID)
	if idx < 0 {
		return false
	}
	s.widgets[idx] = cloneWidget(widget)
	return true
}

// Add appends widget and saves. An empty id is replaced with a UUIDv7,
// which also becomes the config id when that is empty.
func (s *Store) Add(widget Widget) (Widget, error) {
	if _, err := ParseWidgetType(string(widget.Widget.Type)); err != nil {
		return Widget{}, err
	}
	if widget.ID == "" {
		widget.ID = bunx.NewUUIDv7()
	}
	if widget.Widget.ID == "" {
		widget.Widget.ID = widget.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(widget.ID) >= 0 {
		return Widget{}, fmt.Errorf("widget %q already exists", widget.ID)
	}
	s.widgets = append(s.widgets, cloneWidget(widget))
	s.save()
	return cloneWidget(widget), nil
}

// Remove deletes the widget with id and saves.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.widgets)
	s.widgets = slices.DeleteFunc(s.widgets, func(w Widget) bool { return w.ID == id })
	s.save()
	return len(s.widgets) != n
}

// Reset restores DefaultWidgets and saves.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = DefaultWidgets()
	s.save()
}

// Save persists the current layout.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save()
}

// Import validates document against the layout schema, replaces the
// layout with it and saves.
func (s *Store) Import(document []byte) error {
	if err := Validate(document); err != nil {
		return err
	}
	var widgets []Widget
	if err := json.Unmarshal(document, &widgets); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = widgets
	s.save()
	return nil
}

// Export returns the current layout as an indented JSON document.
func (s *Store) Export() ([]byte, error) {
	return json.MarshalIndent(s.Widgets(), "", "  ")
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.widgets, func(w Widget) bool { return w.ID == id })
}

func (s *Store) load() []Widget {
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, sdk.ErrNotFound) {
			s.logger.Warn("layout store read failed", "key", StorageKey, "error", err)
		}
		return DefaultWidgets()
	}
	var widgets []Widget
	if err := json.Unmarshal([]byte(raw), &widgets); err != nil {
		s.logger.Warn("ignoring corrupt dashboard layout", "error", err)
		return DefaultWidgets()
	}
	return widgets
}

// save must be called with s.mu held.
func (s *Store) save() {
	data, err := json.Marshal(s.widgets)
	if err != nil {
		s.logger.Warn("layout store encode failed", "error", err)
		return
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		s.logger.Warn("layout store write failed", "key", StorageKey, "error", err)
	}
}

func cloneWidget(w Widget) Widget {
	w.Widget.Settings = maps.Clone(w.Widget.Settings)
	return w
}

func cloneWidgets(ws []Widget) []Widget {
	out := make([]Widget, len(ws))
	for i, w := range ws {
		out[i] = cloneWidget(w)
	}
	return out
}
