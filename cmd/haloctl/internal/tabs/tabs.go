package tabs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/halolight/halolight/pkg/sdk"
)

// Storage keys used by the tab manager.
const (
	StorageKey       = "halolight-tabs"
	ActiveStorageKey = "halolight-tabs-active"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Icon     string `json:"icon,omitempty"`
	Closable bool   `json:"closable"`
	Cached   bool   `json:"cached"`
}

// DefaultTabs returns the tab bar used when nothing valid is stored.
func DefaultTabs() []Tab {
	return []Tab{{Path: sdk.DefaultHomePath, Title: "Dashboard", Closable: false, Cached: true}}
}

// Navigator receives navigation requests issued by the tab manager.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Reloader is implemented by navigators that can re-render a tab. Refresh
// calls Reload while the tab is marked uncached.
type Reloader interface {
	Reload(path string)
}

// Manager owns the open tabs and the active path and writes every change
// through to a KeyValueStore. Write failures are logged and dropped.
type Manager struct {
	mu     sync.Mutex
	kv     sdk.KeyValueStore
	nav    Navigator
	logger *slog.Logger

	tabs   []Tab
	active string
}

// Option configures a Manager.
type Option func(*Manager)

// WithNavigator sets the navigator notified of every navigation.
func WithNavigator(nav Navigator) Option {
	return func(m *Manager) { m.nav = nav }
}

// WithLogger sets the logger for absorbed storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager loads the tab bar from kv, falling back to DefaultTabs when
// the stored value is missing, corrupt or empty.
func NewManager(kv sdk.KeyValueStore, opts ...Option) *Manager {
	m := &Manager{kv: kv, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.tabs = m.load()
	if active, err := kv.Get(ActiveStorageKey); err == nil {
		m.active = active
	} else if !errors.Is(err, sdk.ErrNotFound) {
		m.logger.Warn("tab store read failed", "key", ActiveStorageKey, "error", err)
	}
	return m
}

// Tabs returns a copy of the open tabs in display order.
func (m *Manager) Tabs() []Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tabs)
}

// ActivePath returns the path of the last navigation.
func (m *Manager) ActivePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveTab returns the tab matching the active path, if any.
func (m *Manager) ActiveTab() (Tab, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(m.active); i >= 0 {
		return m.tabs[i], true
	}
	return Tab{}, false
}

// Open adds tab when its path is not open yet and navigates to it.
// Newly opened tabs are always cached.
func (m *Manager) Open(tab Tab) {
	m.mutate(func() string {
		if m.indexOf(tab.Path) < 0 {
			tab.Cached = true
			m.tabs = append(m.tabs, tab)
			m.save()
		}
		return tab.Path
	})
}

// Close removes a closable tab. Closing the active tab navigates to the tab
// that slid into its position, or to the new last tab.
func (m *Manager) Close(path string) {
	m.mutate(func() string {
		idx := m.indexOf(path)
		if idx < 0 || !m.tabs[idx].Closable {
			return ""
		}
		m.tabs = slices.Delete(m.tabs, idx, idx+1)
		m.save()

		if m.active == path && len(m.tabs) > 0 {
			return m.tabs[min(idx, len(m.tabs)-1)].Path
		}
		return ""
	})
}

// CloseOthers keeps path and every non-closable tab.
func (m *Manager) CloseOthers(path string) {
	m.mutate(func() string {
		m.tabs = slices.DeleteFunc(m.tabs, func(t Tab) bool {
			return t.Path != path && t.Closable
		})
		m.save()

		if m.indexOf(m.active) < 0 {
			return path
		}
		return ""
	})
}

// CloseAll keeps only non-closable tabs.
func (m *Manager) CloseAll() {
	m.mutate(func() string {
		m.tabs = slices.DeleteFunc(m.tabs, func(t Tab) bool { return t.Closable })
		m.save()

		if len(m.tabs) > 0 && m.indexOf(m.active) < 0 {
			return m.tabs[0].Path
		}
		return ""
	})
}

// CloseRight closes the closable tabs to the right of path.
// Unknown paths are ignored.
func (m *Manager) CloseRight(path string) {
	m.mutate(func() string {
		idx := m.indexOf(path)
		if idx < 0 {
			return ""
		}
		kept := slices.Clone(m.tabs[:idx+1])
		for _, t := range m.tabs[idx+1:] {
			if !t.Closable {
				kept = append(kept, t)
			}
		}
		m.tabs = kept
		m.save()

		if m.indexOf(m.active) < 0 {
			return path
		}
		return ""
	})
}

// Rename sets the title of the tab at path.
func (m *Manager) Rename(path, title string) {
	m.mutate(func() string {
		if idx := m.indexOf(path); idx >= 0 {
			m.tabs[idx].Title = title
			m.save()
		}
		return ""
	})
}

// Refresh marks the tab uncached, asks the navigator to reload it when it
// can, and marks it cached again. The toggle is not persisted.
func (m *Manager) Refresh(path string) {
	m.mu.Lock()
	idx := m.indexOf(path)
	if idx < 0 {
		m.mu.Unlock()
		return
	}
	m.tabs[idx].Cached = false
	reloader, _ := m.nav.(Reloader)
	m.mu.Unlock()

	if reloader != nil {
		reloader.Reload(path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexOf(path); idx >= 0 {
		m.tabs[idx].Cached = true
	}
}

// Activate navigates to path without changing the tab list.
func (m *Manager) Activate(path string) {
	m.mutate(func() string { return path })
}

// mutate runs fn under the lock. A non-empty path returned by fn becomes
// the active path, and the navigator hears about it once the lock is
// released so it may call back into the manager.
func (m *Manager) mutate(fn func() string) {
	m.mu.Lock()
	target := fn()
	if target != "" {
		m.active = target
		if err := m.kv.Set(ActiveStorageKey, target); err != nil {
			m.logger.Warn("tab store write failed", "key", ActiveStorageKey, "error", err)
		}
	}
	nav := m.nav
	m.mu.Unlock()

	if target != "" && nav != nil {
		nav.Navigate(target)
	}
}

func (m *Manager) indexOf(path string) int {
	return slices.IndexFunc(m.tabs, func(t Tab) bool { return t.Path == path })
}

func (m *Manager) load() []Tab {
	raw, err := m.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, sdk.ErrNotFound) {
			m.logger.Warn("tab store read failed", "key", StorageKey, "error", err)
		}
		return DefaultTabs()
	}
	var tabs []Tab
	if err := json.Unmarshal([]byte(raw), &tabs); err != nil {
		m.logger.Warn("ignoring corrupt tab list", "error", err)
		return DefaultTabs()
	}
	if len(tabs) == 0 {
		return DefaultTabs()
	}
	return tabs
}

func (m *Manager) save() {
	data, err := json.Marshal(m.tabs)
	if err != nil {
		m.logger.Warn("tab store encode failed", "error", err)
		return
	}
	if err := m.kv.Set(StorageKey, string(data)); err != nil {
		m.logger.Warn("tab store write failed", "key", StorageKey, "error", err)
	}
}
