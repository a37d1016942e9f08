package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/halolight/halolight/cmd/haloctl/internal/db/bunx"
	"github.com/halolight/halolight/cmd/haloctl/internal/layout"
	"github.com/halolight/halolight/cmd/haloctl/internal/logging"
	"github.com/halolight/halolight/cmd/haloctl/internal/storage"
	"github.com/halolight/halolight/cmd/haloctl/internal/tabs"
	"github.com/halolight/halolight/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t     *testing.T
	state string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &cli{t: t, state: filepath.Join(t.TempDir(), "state.json")}
}

func (c *cli) run(args ...string) error {
	c.t.Helper()
	full := append([]string{"--storage-backend", "file", "--storage-path", c.state}, args...)
	rootCmd.SetArgs(full)
	return rootCmd.ExecuteContext(context.Background())
}

func (c *cli) session() *sdk.SessionStore {
	c.t.Helper()
	fs, err := storage.NewFileStore(c.state)
	require.NoError(c.t, err)
	return sdk.NewSessionStore(fs, sdk.WithLogger(logging.Discard()))
}

func (c *cli) login(email string) {
	c.t.Helper()
	require.NoError(c.t, c.run("auth", "login", "--email", email, "--password", "halolight"))
}

func TestCLI_SessionLifecycle(t *testing.T) {
	c := newCLI(t)

	require.Error(t, c.run("auth", "status"))

	c.login("user@halolight.h7ml.cn")
	c.login("manager@halolight.h7ml.cn")
	c.login("manager@halolight.h7ml.cn")

	s := c.session()
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, "2", s.User().ID)
	assert.Len(t, s.Accounts(), 2)

	require.NoError(t, c.run("auth", "status"))
	require.NoError(t, c.run("auth", "accounts", "--filter", `role == "user"`))

	require.NoError(t, c.run("auth", "switch", "3"))
	assert.Equal(t, "3", c.session().User().ID)
	require.Error(t, c.run("auth", "switch", "99"))

	require.NoError(t, c.run("auth", "remove", "3"))
	s = c.session()
	assert.Equal(t, "2", s.User().ID)
	assert.Len(t, s.Accounts(), 1)

	require.NoError(t, c.run("auth", "logout"))
	s = c.session()
	assert.False(t, s.IsAuthenticated())
	assert.Len(t, s.Accounts(), 1)
}

func TestCLI_LoginRejectsBadPassword(t *testing.T) {
	c := newCLI(t)
	err := c.run("auth", "login", "--email", "admin@halolight.h7ml.cn", "--password", "wrong")
	require.Error(t, err)
	assert.False(t, c.session().IsAuthenticated())
}

func TestCLI_Can(t *testing.T) {
	c := newCLI(t)
	c.login("manager@halolight.h7ml.cn")

	assert.NoError(t, c.run("auth", "can", sdk.DashboardEdit))
	assert.Error(t, c.run("auth", "can", sdk.UsersDelete))
	assert.Error(t, c.run("auth", "can", sdk.UsersList, sdk.UsersDelete))
	assert.NoError(t, c.run("auth", "can", "--any", sdk.UsersList, sdk.UsersDelete))
	assert.NoError(t, c.run("auth", "permissions", "--role", "manager"))
}

func TestCLI_LayoutRequiresEditPermission(t *testing.T) {
	c := newCLI(t)

	err := c.run("layout", "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	c.login("user@halolight.h7ml.cn")
	err = c.run("layout", "remove", "stats-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), sdk.DashboardEdit)

	c.login("manager@halolight.h7ml.cn")
	require.NoError(t, c.run("layout", "remove", "stats-1"))

	fs, err := storage.NewFileStore(c.state)
	require.NoError(t, err)
	assert.Equal(t, len(layout.DefaultWidgets())-1, layout.NewStore(fs, logging.Discard()).Count())

	exported := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, c.run("layout", "export", exported))
	require.NoError(t, c.run("layout", "reset"))
	require.NoError(t, c.run("layout", "import", exported))
	assert.Equal(t, len(layout.DefaultWidgets())-1, layout.NewStore(fs, logging.Discard()).Count())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x"}]`), 0644))
	assert.Error(t, c.run("layout", "import", bad))
}

func TestCLI_Tabs(t *testing.T) {
	c := newCLI(t)

	require.NoError(t, c.run("tabs", "open", "/users", "--title", "Users"))
	require.NoError(t, c.run("tabs", "open", "/roles", "--title", "Roles"))
	require.NoError(t, c.run("tabs", "close", "/roles"))

	fs, err := storage.NewFileStore(c.state)
	require.NoError(t, err)
	m := tabs.NewManager(fs, tabs.WithLogger(logging.Discard()))
	paths := make([]string, 0, len(m.Tabs()))
	for _, tab := range m.Tabs() {
		paths = append(paths, tab.Path)
	}
	assert.Equal(t, []string{sdk.DefaultHomePath, "/users"}, paths)
	assert.Equal(t, "/users", m.ActivePath())

	require.NoError(t, c.run("tabs", "close-all"))
	m = tabs.NewManager(fs, tabs.WithLogger(logging.Discard()))
	assert.Len(t, m.Tabs(), 1)
	assert.Equal(t, sdk.DefaultHomePath, m.ActivePath())
}

func TestCLI_DBRequiresDatabaseBackend(t *testing.T) {
	c := newCLI(t)
	err := c.run("db", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or postgres")
}

func TestCLI_DBEntries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dsn := "file:" + filepath.Join(t.TempDir(), "halo.db")
	run := func(args ...string) error {
		rootCmd.SetArgs(append([]string{"--storage-backend", "sqlite", "--storage-dsn", dsn}, args...))
		return rootCmd.ExecuteContext(context.Background())
	}

	require.NoError(t, run("auth", "login", "--email", "admin@halolight.h7ml.cn", "--password", "halolight"))
	require.NoError(t, run("db", "entries"))

	ctx := context.Background()
	db, err := bunx.NewDB(ctx, dsn)
	require.NoError(t, err)
	defer bunx.Close(db)
	store, err := storage.NewBunStore(ctx, db, 0)
	require.NoError(t, err)
	entries, err := store.Entries(ctx)
	require.NoError(t, err)

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	assert.Subset(t, keys, []string{sdk.TokenKey, sdk.UserKey})
}
