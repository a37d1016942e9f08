package sdk

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestSession(t *testing.T, kv KeyValueStore) *SessionStore {
	t.Helper()
	return NewSessionStore(kv, WithLogger(quietLogger))
}

func adminUser() User {
	return User{ID: "1", Email: "admin@halolight.h7ml.cn", Name: "Admin", Role: RoleAdmin}
}

func managerUser() User {
	return User{ID: "2", Email: "manager@halolight.h7ml.cn", Name: "Manager", Role: RoleManager}
}

// failingStore rejects every operation.
type failingStore struct{}

func (failingStore) Get(string) (string, error) { return "", errors.New("storage unavailable") }
func (failingStore) Set(string, string) error   { return errors.New("quota exceeded") }
func (failingStore) Delete(string) error        { return errors.New("storage unavailable") }

// keyFailingStore is a MemoryStore whose writes to one key always fail.
type keyFailingStore struct {
	*MemoryStore
	key string
}

func (k keyFailingStore) Set(key, value string) error {
	if key == k.key {
		return errors.New("quota exceeded")
	}
	return k.MemoryStore.Set(key, value)
}

func (k keyFailingStore) Delete(key string) error {
	if key == k.key {
		return errors.New("storage unavailable")
	}
	return k.MemoryStore.Delete(key)
}

func TestSessionStore_Empty(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Accounts())
	assert.Nil(t, s.ActiveAccount())
	assert.False(t, s.HasPermission(DashboardView))
	assert.False(t, s.HasAnyPermission([]string{DashboardView}))
}

func TestSessionStore_SetAuth(t *testing.T) {
	kv := NewMemoryStore()
	s := newTestSession(t, kv)

	require.NoError(t, s.SetAuth("t1", adminUser()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "t1", s.Token())
	assert.Equal(t, "1", s.User().ID)
	require.Len(t, s.Accounts(), 1)
	assert.Equal(t, "Admin", s.Accounts()[0].Label)
	require.NotNil(t, s.ActiveAccount())
	assert.Equal(t, "1", s.ActiveAccount().ID)

	t.Run("persists every key", func(t *testing.T) {
		token, err := kv.Get(TokenKey)
		require.NoError(t, err)
		assert.Equal(t, "t1", token)

		active, err := kv.Get(ActiveAccountKey)
		require.NoError(t, err)
		assert.Equal(t, "1", active)

		raw, err := kv.Get(UserKey)
		require.NoError(t, err)
		var u User
		require.NoError(t, json.Unmarshal([]byte(raw), &u))
		assert.Equal(t, "admin@halolight.h7ml.cn", u.Email)

		raw, err = kv.Get(AccountsKey)
		require.NoError(t, err)
		var accounts []Account
		require.NoError(t, json.Unmarshal([]byte(raw), &accounts))
		require.Len(t, accounts, 1)
		assert.Equal(t, "t1", accounts[0].Token)
	})

	t.Run("same id replaces in place", func(t *testing.T) {
		require.NoError(t, s.SetAuth("t2", managerUser()))
		updated := adminUser()
		updated.Name = "Root"
		require.NoError(t, s.SetAuth("t3", updated))

		accounts := s.Accounts()
		require.Len(t, accounts, 2)
		assert.Equal(t, "1", accounts[0].ID)
		assert.Equal(t, "t3", accounts[0].Token)
		assert.Equal(t, "Root", accounts[0].Label)
		assert.Equal(t, "2", accounts[1].ID)
		assert.Equal(t, "1", s.ActiveAccount().ID)
	})

	t.Run("rejects empty token or id", func(t *testing.T) {
		assert.ErrorIs(t, s.SetAuth("", adminUser()), ErrInvalidAuth)
		assert.ErrorIs(t, s.SetAuth("t", User{Email: "x@y"}), ErrInvalidAuth)
		assert.Equal(t, "t3", s.Token())
	})
}

func TestSessionStore_LabelFallsBackToEmail(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())
	require.NoError(t, s.SetAuth("t", User{ID: "9", Email: "anon@example.com"}))
	assert.Equal(t, "anon@example.com", s.Accounts()[0].Label)
}

func TestSessionStore_Logout(t *testing.T) {
	kv := NewMemoryStore()
	s := newTestSession(t, kv)
	require.NoError(t, s.SetAuth("t1", adminUser()))

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Nil(t, s.ActiveAccount())
	assert.Len(t, s.Accounts(), 1, "accounts survive logout")

	for _, key := range []string{TokenKey, UserKey, ActiveAccountKey} {
		_, err := kv.Get(key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
	_, err := kv.Get(AccountsKey)
	assert.NoError(t, err)
}

func TestSessionStore_SwitchAccount(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())
	require.NoError(t, s.SetAuth("t1", adminUser()))
	require.NoError(t, s.SetAuth("t2", managerUser()))

	assert.True(t, s.SwitchAccount("1"))
	assert.Equal(t, "t1", s.Token())
	assert.Equal(t, "1", s.User().ID)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		assert.False(t, s.SwitchAccount("nope"))
		assert.Equal(t, "t1", s.Token())
		assert.Equal(t, "1", s.ActiveAccount().ID)
	})

	t.Run("switch back after logout", func(t *testing.T) {
		s.Logout()
		assert.True(t, s.SwitchAccount("2"))
		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, "t2", s.Token())
	})
}

func TestSessionStore_RemoveAccount(t *testing.T) {
	t.Run("non-active account", func(t *testing.T) {
		s := newTestSession(t, NewMemoryStore())
		require.NoError(t, s.SetAuth("t1", adminUser()))
		require.NoError(t, s.SetAuth("t2", managerUser()))

		s.RemoveAccount("1")

		assert.Len(t, s.Accounts(), 1)
		assert.Equal(t, "t2", s.Token())
		assert.Equal(t, "2", s.ActiveAccount().ID)
	})

	t.Run("active account promotes first remaining", func(t *testing.T) {
		kv := NewMemoryStore()
		s := newTestSession(t, kv)
		require.NoError(t, s.SetAuth("t1", adminUser()))
		require.NoError(t, s.SetAuth("t2", managerUser()))

		s.RemoveAccount("2")

		require.NotNil(t, s.ActiveAccount())
		assert.Equal(t, "1", s.ActiveAccount().ID)
		assert.Equal(t, "t1", s.Token())
		assert.Equal(t, "1", s.User().ID)

		token, err := kv.Get(TokenKey)
		require.NoError(t, err)
		assert.Equal(t, "t1", token)
	})

	t.Run("last account clears session", func(t *testing.T) {
		s := newTestSession(t, NewMemoryStore())
		require.NoError(t, s.SetAuth("t1", adminUser()))

		s.RemoveAccount("1")

		assert.Empty(t, s.Accounts())
		assert.False(t, s.IsAuthenticated())
		assert.Nil(t, s.User())
		assert.Nil(t, s.ActiveAccount())
	})

	t.Run("unknown id is ignored", func(t *testing.T) {
		s := newTestSession(t, NewMemoryStore())
		require.NoError(t, s.SetAuth("t1", adminUser()))
		s.RemoveAccount("404")
		assert.Len(t, s.Accounts(), 1)
		assert.True(t, s.IsAuthenticated())
	})
}

func TestSessionStore_UpdateUser(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())
	assert.False(t, s.UpdateUser(adminUser()), "ignored while logged out")

	require.NoError(t, s.SetAuth("t1", adminUser()))
	updated := adminUser()
	updated.Name = "Renamed"
	assert.True(t, s.UpdateUser(updated))
	assert.Equal(t, "Renamed", s.User().Name)
	assert.Equal(t, "Renamed", s.Accounts()[0].Label)
	assert.Equal(t, "t1", s.Accounts()[0].Token)

	assert.False(t, s.UpdateUser(managerUser()), "ignored for a different user")
}

func TestSessionStore_Reload(t *testing.T) {
	kv := NewMemoryStore()
	s := newTestSession(t, kv)
	require.NoError(t, s.SetAuth("t1", adminUser()))
	require.NoError(t, s.SetAuth("t2", managerUser()))
	require.True(t, s.SwitchAccount("1"))

	reloaded := newTestSession(t, kv)

	assert.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, "t1", reloaded.Token())
	assert.Equal(t, "1", reloaded.User().ID)
	assert.Equal(t, s.Accounts(), reloaded.Accounts())
	assert.True(t, reloaded.HasPermission(UsersDelete))
}

func TestSessionStore_ActiveAccountWins(t *testing.T) {
	kv := NewMemoryStore()
	s := newTestSession(t, kv)
	require.NoError(t, s.SetAuth("t1", adminUser()))
	require.NoError(t, s.SetAuth("t2", managerUser()))

	// token/user drifted from the active account
	require.NoError(t, kv.Set(ActiveAccountKey, "1"))

	reloaded := newTestSession(t, kv)
	assert.Equal(t, "t1", reloaded.Token())
	assert.Equal(t, "1", reloaded.User().ID)
}

func TestSessionStore_UnknownActiveAccountCleared(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Set(ActiveAccountKey, "ghost"))

	s := newTestSession(t, kv)

	assert.Nil(t, s.ActiveAccount())
	_, err := kv.Get(ActiveAccountKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_CorruptStorage(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Set(UserKey, "{not json"))
	require.NoError(t, kv.Set(AccountsKey, "[broken"))

	s := newTestSession(t, kv)

	assert.Nil(t, s.User())
	assert.Empty(t, s.Accounts())
	assert.False(t, s.IsAuthenticated())
}

func TestSessionStore_StorageFailuresAbsorbed(t *testing.T) {
	s := newTestSession(t, failingStore{})

	require.NoError(t, s.SetAuth("t1", adminUser()))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "t1", s.Token())
	assert.True(t, s.SwitchAccount("1"))

	s.Logout()
	assert.False(t, s.IsAuthenticated())
	assert.Len(t, s.Accounts(), 1)
}

func TestSessionStore_Permissions(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())
	require.NoError(t, s.SetAuth("t", managerUser()))

	assert.True(t, s.HasPermission(DashboardEdit))
	assert.False(t, s.HasPermission(UsersDelete))
	assert.True(t, s.HasAnyPermission([]string{UsersDelete, UsersList}))
	assert.False(t, s.HasAnyPermission(nil))
	assert.True(t, s.HasAllPermissions([]string{DashboardView, UsersList}))
	assert.False(t, s.HasAllPermissions([]string{DashboardView, UsersDelete}))
	assert.True(t, s.HasAllPermissions(nil))
}

func TestSessionStore_CustomAuthorizer(t *testing.T) {
	var seen []string
	authz := AuthorizerFunc(func(user *User, permission string) bool {
		seen = append(seen, permission)
		return permission == "custom:ok"
	})
	s := NewSessionStore(NewMemoryStore(), WithLogger(quietLogger), WithAuthorizer(authz))
	require.NoError(t, s.SetAuth("t", adminUser()))

	assert.True(t, s.HasPermission("custom:ok"))
	assert.False(t, s.HasPermission(DashboardView))
	assert.Equal(t, []string{"custom:ok", DashboardView}, seen)
}

func TestSessionStore_Concurrent(t *testing.T) {
	s := newTestSession(t, NewMemoryStore())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetAuth("t", adminUser())
		}()
		go func() {
			defer wg.Done()
			_ = s.HasPermission(DashboardView)
			_ = s.Accounts()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Accounts(), 1)
}

func TestUser_CloneIsDeep(t *testing.T) {
	u := &User{ID: "1", Permissions: []string{"a"}}
	c := u.Clone()
	c.Permissions[0] = "b"
	assert.Equal(t, "a", u.Permissions[0])
	assert.Nil(t, (*User)(nil).Clone())
}

func TestSessionStore_KeysPersistIndependently(t *testing.T) {
	t.Run("failed accounts write keeps the other keys", func(t *testing.T) {
		kv := keyFailingStore{MemoryStore: NewMemoryStore(), key: AccountsKey}
		s := newTestSession(t, kv)

		require.NoError(t, s.SetAuth("t1", adminUser()))

		token, err := kv.Get(TokenKey)
		require.NoError(t, err)
		assert.Equal(t, "t1", token)

		raw, err := kv.Get(UserKey)
		require.NoError(t, err)
		var stored User
		require.NoError(t, json.Unmarshal([]byte(raw), &stored))
		assert.Equal(t, "1", stored.ID)

		active, err := kv.Get(ActiveAccountKey)
		require.NoError(t, err)
		assert.Equal(t, "1", active)

		_, err = kv.Get(AccountsKey)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, s.Accounts(), 1)
	})

	t.Run("failed token delete keeps clearing the other keys", func(t *testing.T) {
		kv := keyFailingStore{MemoryStore: NewMemoryStore(), key: TokenKey}
		require.NoError(t, kv.MemoryStore.Set(TokenKey, "stale"))
		s := newTestSession(t, kv)
		require.NoError(t, s.SetAuth("t1", adminUser()))

		s.Logout()

		_, err := kv.Get(UserKey)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = kv.Get(ActiveAccountKey)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = kv.Get(AccountsKey)
		assert.NoError(t, err)
		assert.False(t, s.IsAuthenticated())
	})
}
