package directory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/halolight/halolight/cmd/haloctl/internal/db/bunx"
	"github.com/halolight/halolight/pkg/sdk"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail is returned when adding a user whose email is taken
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidPermission is returned when a user carries a permission outside the catalog
	ErrInvalidPermission = errors.New("invalid permission")
)

// DefaultDemoPassword is the password of every seeded demo account.
const DefaultDemoPassword = "halolight"

type entry struct {
	user         sdk.User
	passwordHash []byte
}

// Directory is an in-memory identity directory with bcrypt password hashes.
// It stands in for the admin backend when issuing tokens from the CLI or
// the local server. Directory is safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	cost    int
	byEmail map[string]*entry
	byID    map[string]*entry
}

// Option configures a Directory.
type Option func(*Directory)

// WithBcryptCost overrides the bcrypt cost used to hash passwords.
func WithBcryptCost(cost int) Option {
	return func(d *Directory) {
		d.cost = cost
	}
}

// New creates an empty directory.
func New(opts ...Option) *Directory {
	d := &Directory{
		cost:    bcrypt.DefaultCost,
		byEmail: make(map[string]*entry),
		byID:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDemo creates a directory seeded with one account per role:
// admin@halolight.h7ml.cn, manager@halolight.h7ml.cn and user@halolight.h7ml.cn,
// all using DefaultDemoPassword. Seeded ids are fixed ("1", "2" and "3") so
// tokens and remembered accounts stay valid across processes.
func NewDemo(opts ...Option) (*Directory, error) {
	d := New(opts...)
	seed := []sdk.User{
		{ID: "1", Email: "admin@halolight.h7ml.cn", Name: "Administrator", Role: sdk.RoleAdmin},
		{ID: "2", Email: "manager@halolight.h7ml.cn", Name: "Manager", Role: sdk.RoleManager},
		{ID: "3", Email: "user@halolight.h7ml.cn", Name: "Demo User", Role: sdk.RoleUser, Permissions: []string{sdk.SettingsView}},
	}
	for _, u := range seed {
		if _, err := d.Add(u, DefaultDemoPassword); err != nil {
			return nil, fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return d, nil
}

// Add registers user with password and returns the stored copy. An empty
// user.ID is replaced with a UUIDv7.
func (d *Directory) Add(user sdk.User, password string) (sdk.User, error) {
	email := normalizeEmail(user.Email)
	if email == "" {
		return sdk.User{}, fmt.Errorf("email is required")
	}
	if password == "" {
		return sdk.User{}, fmt.Errorf("password is required")
	}
	if user.Role != "" && !user.Role.Valid() {
		return sdk.User{}, fmt.Errorf("%w: %q", sdk.ErrUnknownRole, user.Role)
	}
	for _, p := range user.Permissions {
		if !sdk.ValidatePermission(p) {
			return sdk.User{}, fmt.Errorf("%w: %q", ErrInvalidPermission, p)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return sdk.User{}, fmt.Errorf("hash password: %w", err)
	}

	stored := *user.Clone()
	stored.Email = email
	if stored.ID == "" {
		stored.ID = bunx.NewUUIDv7()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[email]; ok {
		return sdk.User{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
	}
	e := &entry{user: stored, passwordHash: hash}
	d.byEmail[email] = e
	d.byID[stored.ID] = e
	return *stored.Clone(), nil
}

// Authenticate verifies email and password and returns the matching user.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (d *Directory) Authenticate(email, password string) (*sdk.User, error) {
	d.mu.RLock()
	e, ok := d.byEmail[normalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(e.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return e.user.Clone(), nil
}

// Lookup returns the user with id.
func (d *Directory) Lookup(id string) (*sdk.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return e.user.Clone(), true
}

// Users returns every user sorted by email.
func (d *Directory) Users() []sdk.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	users := make([]sdk.User, 0, len(d.byEmail))
	for _, e := range d.byEmail {
		users = append(users, *e.user.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
