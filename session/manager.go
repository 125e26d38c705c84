// Package session holds the reactive authentication state for one client
// instance: the current user, login/register/logout, and the state machine
// behind them. The manager is an explicit, injectable value with a defined
// lifecycle, constructed fresh per process (or per test) rather than ambient
// global state.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/careercompass/compass-client/api"
	"github.com/careercompass/compass-client/client"
	"github.com/careercompass/compass-client/tokens"
)

// State is the session lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Manager owns the session state machine. The stored token pair is the
// source of truth: the user record is derived from it and refetched, never
// persisted. Safe for concurrent use.
type Manager struct {
	client *client.Client
	tokens tokens.Store
	log    zerolog.Logger

	lock  sync.RWMutex
	state State
	user  *api.User
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger sets the session logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes a Manager with required dependencies.
func NewManager(apiClient *client.Client, store tokens.Store, options ...ManagerOption) (*Manager, error) {
	if apiClient == nil {
		return nil, errors.New("[NewManager] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}

	m := &Manager{
		client: apiClient,
		tokens: store,
		log:    zerolog.Nop(),
		state:  StateUninitialized,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Initialize resolves the startup state: with a stored token it fetches the
// current user and becomes authenticated; any failure clears the tokens and
// leaves the session anonymous. Without a token it is anonymous immediately.
func (m *Manager) Initialize(ctx context.Context) error {
	m.setState(StateLoading, nil)

	if !m.tokens.IsAuthenticated() {
		m.setState(StateAnonymous, nil)
		return nil
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore failed, clearing tokens")
		if clearErr := m.tokens.Clear(); clearErr != nil {
			m.log.Err(clearErr).Msg("failed to clear tokens")
		}
		m.setState(StateAnonymous, nil)
		return nil
	}

	m.setState(StateAuthenticated, user)
	return nil
}

// Login authenticates with the backend, stores the returned tokens, and
// fetches the current user. On failure the session stays in its prior state
// and the error carries the server's message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if _, err := m.client.Login(ctx, email, password); err != nil {
		return err
	}
	return m.adoptUser(ctx, "[Manager.Login]")
}

// Register creates an account, stores the returned tokens, and fetches the
// current user.
func (m *Manager) Register(ctx context.Context, email, name, password string) error {
	if _, err := m.client.Register(ctx, email, name, password); err != nil {
		return err
	}
	return m.adoptUser(ctx, "[Manager.Register]")
}

// Logout clears tokens and the in-memory user synchronously. No server
// round-trip is required for it to succeed.
func (m *Manager) Logout() error {
	err := m.tokens.Clear()
	m.setState(StateAnonymous, nil)
	if err != nil {
		return errors.Wrap(err, "[Manager.Logout] clear tokens")
	}
	return nil
}

// RefreshUser refetches the current user. Any failure is treated as session
// invalidation, not a transient error: the manager performs a full logout.
func (m *Manager) RefreshUser(ctx context.Context) error {
	if m.State() != StateAuthenticated {
		return nil
	}
	user, err := m.client.Me(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("user refresh failed, logging out")
		if logoutErr := m.Logout(); logoutErr != nil {
			m.log.Err(logoutErr).Msg("logout after failed refresh")
		}
		return err
	}
	m.setState(StateAuthenticated, user)
	return nil
}

// DeleteAccount deletes the account server-side and resets the session.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.client.DeleteAccount(ctx); err != nil {
		return err
	}
	m.setState(StateAnonymous, nil)
	return nil
}

// CurrentUser returns the session user, or nil when not authenticated.
func (m *Manager) CurrentUser() *api.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.user
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// IsAuthenticated reports whether the session holds an authenticated user.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

func (m *Manager) adoptUser(ctx context.Context, op string) error {
	user, err := m.client.Me(ctx)
	if err != nil {
		// Tokens were stored but the user fetch failed; treat as not logged
		// in rather than leaving a half-open session.
		if clearErr := m.tokens.Clear(); clearErr != nil {
			m.log.Err(clearErr).Msg("failed to clear tokens")
		}
		m.setState(StateAnonymous, nil)
		return errors.Wrap(err, op+" fetch current user")
	}
	m.setState(StateAuthenticated, user)
	return nil
}

func (m *Manager) setState(state State, user *api.User) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = state
	m.user = user
}
