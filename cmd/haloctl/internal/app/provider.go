package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/halolight/halolight/cmd/haloctl/internal/config"
	"github.com/halolight/halolight/cmd/haloctl/internal/directory"
	"github.com/halolight/halolight/cmd/haloctl/internal/layout"
	"github.com/halolight/halolight/cmd/haloctl/internal/policy"
	"github.com/halolight/halolight/cmd/haloctl/internal/storage"
	"github.com/halolight/halolight/cmd/haloctl/internal/tabs"
	"github.com/halolight/halolight/pkg/sdk"
)

// Provider lazily builds the collaborators shared by haloctl commands.
// Each collaborator is created at most once per process.
type Provider struct {
	cfg    *config.Config
	logger *slog.Logger

	storeOnce sync.Once
	store     storage.Store
	storeErr  error

	enforcerOnce sync.Once
	enforcer     *policy.Enforcer
	enforcerErr  error

	directoryOnce sync.Once
	directory     *directory.Directory
	directoryErr  error

	tokensOnce sync.Once
	tokens     *directory.TokenIssuer
	tokensErr  error
}

// NewProvider constructs a Provider for cfg.
func NewProvider(cfg *config.Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, logger: logger}
}

// Config returns the loaded configuration.
func (p *Provider) Config() *config.Config {
	return p.cfg
}

// Logger returns the process logger.
func (p *Provider) Logger() *slog.Logger {
	return p.logger
}

// Store opens the configured key-value backend.
func (p *Provider) Store(ctx context.Context) (storage.Store, error) {
	p.storeOnce.Do(func() {
		p.store, p.storeErr = storage.Open(ctx, p.cfg.Storage, p.logger)
	})
	return p.store, p.storeErr
}

// Enforcer returns the casbin-backed permission checker.
func (p *Provider) Enforcer() (*policy.Enforcer, error) {
	p.enforcerOnce.Do(func() {
		p.enforcer, p.enforcerErr = policy.NewEnforcer(p.logger)
	})
	return p.enforcer, p.enforcerErr
}

// Directory returns the demo identity directory.
func (p *Provider) Directory() (*directory.Directory, error) {
	p.directoryOnce.Do(func() {
		p.directory, p.directoryErr = directory.NewDemo()
	})
	return p.directory, p.directoryErr
}

// Tokens returns the token issuer configured from auth.signing_key and auth.token_ttl.
func (p *Provider) Tokens() (*directory.TokenIssuer, error) {
	p.tokensOnce.Do(func() {
		p.tokens, p.tokensErr = directory.NewTokenIssuer([]byte(p.cfg.Auth.SigningKey), p.cfg.Auth.TokenTTL)
	})
	return p.tokens, p.tokensErr
}

// Guards returns access guards using the configured redirect routes.
func (p *Provider) Guards() *sdk.Guards {
	return sdk.NewGuards(sdk.Routes{
		Login:     p.cfg.Routes.Login,
		Home:      p.cfg.Routes.Home,
		Forbidden: p.cfg.Routes.Forbidden,
	})
}

// Session loads the persisted session, evaluating permissions through the enforcer.
func (p *Provider) Session(ctx context.Context) (*sdk.SessionStore, error) {
	store, err := p.Store(ctx)
	if err != nil {
		return nil, err
	}
	enforcer, err := p.Enforcer()
	if err != nil {
		return nil, err
	}
	return sdk.NewSessionStore(store, sdk.WithLogger(p.logger), sdk.WithAuthorizer(enforcer)), nil
}

// Tabs loads the persisted tab bar.
func (p *Provider) Tabs(ctx context.Context, nav tabs.Navigator) (*tabs.Manager, error) {
	store, err := p.Store(ctx)
	if err != nil {
		return nil, err
	}
	return tabs.NewManager(store, tabs.WithNavigator(nav), tabs.WithLogger(p.logger)), nil
}

// Layout loads the persisted dashboard layout.
func (p *Provider) Layout(ctx context.Context) (*layout.Store, error) {
	store, err := p.Store(ctx)
	if err != nil {
		return nil, err
	}
	return layout.NewStore(store, p.logger), nil
}

// Close releases the storage backend if it was opened.
func (p *Provider) Close() error {
	if p.store == nil {
		return nil
	}
	if err := p.store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return err
	}
	return nil
}

type contextKey string

const providerKey contextKey = "haloctl-provider"

// InjectProvider adds p to the cobra command context.
func InjectProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey, p)
}

// MustFromContext retrieves the provider or panics.
// Only use it in RunE functions of commands under the root command.
func MustFromContext(ctx context.Context) *Provider {
	p, ok := ctx.Value(providerKey).(*Provider)
	if !ok {
		panic("haloctl: provider not found in context - this is a bug in haloctl")
	}
	return p
}
