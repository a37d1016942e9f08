package sdk

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Storage keys written by the session store.
const (
	TokenKey         = "auth_token"
	UserKey          = "auth_user"
	AccountsKey      = "auth_accounts"
	ActiveAccountKey = "auth_active_account"
)

// ErrInvalidAuth is returned by SetAuth when the token or user id is empty.
var ErrInvalidAuth = errors.New("invalid auth: token and user id are required")

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithLogger sets the logger used to report absorbed storage failures.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuthorizer replaces the permission evaluator. Defaults to DefaultAuthorizer.
func WithAuthorizer(authz Authorizer) SessionOption {
	return func(s *SessionStore) {
		if authz != nil {
			s.authz = authz
		}
	}
}

// SessionStore owns the active session (token + user) and the list of known
// accounts, mirroring every change to a KeyValueStore.
//
// Persisted state is read once by NewSessionStore. After that the in-memory
// state is authoritative: every mutator updates memory first and then writes
// each affected key independently. Storage failures are logged and dropped.
//
// SessionStore is safe for concurrent use.
type SessionStore struct {
	mu     sync.RWMutex
	kv     KeyValueStore
	logger *slog.Logger
	authz  Authorizer

	token    string
	user     *User
	accounts []Account
	activeID string
}

// NewSessionStore loads persisted session state from kv.
// Missing or corrupt values fall back to an empty session.
func NewSessionStore(kv KeyValueStore, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		kv:     kv,
		logger: slog.Default(),
		authz:  DefaultAuthorizer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.token = s.readString(TokenKey)
	s.activeID = s.readString(ActiveAccountKey)
	var user User
	if s.readJSON(UserKey, &user) && user.ID != "" {
		s.user = &user
	}
	var accounts []Account
	if s.readJSON(AccountsKey, &accounts) {
		s.accounts = accounts
	}

	// The active account is the source of truth for token/user.
	if s.activeID != "" {
		if idx := s.indexOf(s.activeID); idx >= 0 {
			s.syncFromAccount(s.accounts[idx])
		} else {
			s.logger.Warn("stored active account is unknown, clearing", "account_id", s.activeID)
			s.activeID = ""
			s.persistActive()
		}
	}

	return s
}

// SetAuth makes token/user the active session and upserts the matching account.
// The account for user.ID is replaced in place when it exists and appended otherwise.
func (s *SessionStore) SetAuth(token string, user User) error {
	if token == "" || user.ID == "" {
		return ErrInvalidAuth
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := NewAccount(token, &user)
	s.token = token
	s.user = user.Clone()
	if idx := s.indexOf(account.ID); idx >= 0 {
		s.accounts[idx] = account
	} else {
		s.accounts = append(s.accounts, account)
	}
	s.activeID = account.ID

	s.persistToken()
	s.persistUser()
	s.persistAccounts()
	s.persistActive()
	return nil
}

// Logout clears the active session. Known accounts are kept so the caller
// can switch back to them.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSession()
}

// SwitchAccount activates a known account and mirrors its token and user
// into the session. Unknown ids are ignored; the result reports whether the
// switch happened.
func (s *SessionStore) SwitchAccount(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(accountID)
	if idx < 0 {
		return false
	}
	s.activeID = accountID
	s.syncFromAccount(s.accounts[idx])

	s.persistActive()
	s.persistToken()
	s.persistUser()
	return true
}

// RemoveAccount forgets an account. Removing the active account promotes the
// first remaining account and re-syncs token/user to it; when no account
// remains the session is cleared. Unknown ids are ignored.
func (s *SessionStore) RemoveAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(accountID)
	if idx < 0 {
		return
	}
	s.accounts = slices.Delete(s.accounts, idx, idx+1)
	s.persistAccounts()

	if s.activeID != accountID {
		return
	}
	if len(s.accounts) == 0 {
		s.clearSession()
		return
	}
	s.activeID = s.accounts[0].ID
	s.syncFromAccount(s.accounts[0])
	s.persistActive()
	s.persistToken()
	s.persistUser()
}

// UpdateUser replaces the active user's profile and the matching account.
// It is ignored when nobody is logged in or when user.ID is not the active user.
func (s *SessionStore) UpdateUser(user User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || s.user == nil || s.user.ID != user.ID {
		return false
	}
	s.user = user.Clone()
	s.persistUser()

	if idx := s.indexOf(user.ID); idx >= 0 {
		s.accounts[idx] = NewAccount(s.accounts[idx].Token, &user)
		s.persistAccounts()
	}
	return true
}

// IsAuthenticated reports whether a token is held.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the active token, or "" when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the active user, or nil when logged out.
func (s *SessionStore) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Accounts returns a copy of the known accounts in insertion order.
func (s *SessionStore) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.clone()
	}
	return out
}

// ActiveAccount returns a copy of the active account, or nil when none is active.
func (s *SessionStore) ActiveAccount() *Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(s.activeID)
	if s.activeID == "" || idx < 0 {
		return nil
	}
	a := s.accounts[idx].clone()
	return &a
}

// HasPermission reports whether the active user holds permission.
func (s *SessionStore) HasPermission(permission string) bool {
	user := s.User()
	if user == nil {
		return false
	}
	return s.authz.Authorize(user, permission)
}

// HasAnyPermission reports whether the active user holds at least one
// permission. An empty list yields false.
func (s *SessionStore) HasAnyPermission(permissions []string) bool {
	user := s.User()
	if user == nil {
		return false
	}
	for _, p := range permissions {
		if s.authz.Authorize(user, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the active user holds every permission.
// An empty list yields true.
func (s *SessionStore) HasAllPermissions(permissions []string) bool {
	user := s.User()
	for _, p := range permissions {
		if user == nil || !s.authz.Authorize(user, p) {
			return false
		}
	}
	return true
}

// clearSession must be called with s.mu held.
func (s *SessionStore) clearSession() {
	s.token = ""
	s.user = nil
	s.activeID = ""
	s.persistToken()
	s.persistUser()
	s.persistActive()
}

func (s *SessionStore) syncFromAccount(a Account) {
	s.token = a.Token
	s.user = a.User.Clone()
}

func (s *SessionStore) indexOf(accountID string) int {
	return slices.IndexFunc(s.accounts, func(a Account) bool { return a.ID == accountID })
}

func (s *SessionStore) persistToken() {
	s.writeString(TokenKey, s.token)
}

func (s *SessionStore) persistActive() {
	s.writeString(ActiveAccountKey, s.activeID)
}

func (s *SessionStore) persistUser() {
	if s.user == nil {
		s.remove(UserKey)
		return
	}
	s.writeJSON(UserKey, s.user)
}

func (s *SessionStore) persistAccounts() {
	accounts := s.accounts
	if accounts == nil {
		accounts = []Account{}
	}
	s.writeJSON(AccountsKey, accounts)
}

// writeString stores value, or deletes the key when value is empty.
func (s *SessionStore) writeString(key, value string) {
	if value == "" {
		s.remove(key)
		return
	}
	if err := s.kv.Set(key, value); err != nil {
		s.logger.Warn("session store write failed", "key", key, "error", err)
	}
}

func (s *SessionStore) writeJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("session store encode failed", "key", key, "error", err)
		return
	}
	s.writeString(key, string(data))
}

func (s *SessionStore) remove(key string) {
	if err := s.kv.Delete(key); err != nil {
		s.logger.Warn("session store delete failed", "key", key, "error", err)
	}
}

func (s *SessionStore) readString(key string) string {
	v, err := s.kv.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session store read failed", "key", key, "error", err)
		}
		return ""
	}
	return v
}

// readJSON decodes the value under key into v and reports whether it succeeded.
func (s *SessionStore) readJSON(key string, v any) bool {
	raw := s.readString(key)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("ignoring corrupt session value", "key", key, "error", err)
		return false
	}
	return true
}
