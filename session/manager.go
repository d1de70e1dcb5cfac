package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/MrEthical07/routegate/internal/logging"
)

// Manager is the process-wide session state container. Create one at
// startup, call Bootstrap once, and share it through NewContext.
type Manager struct {
	backend Backend
	logger  logging.Logger

	mu    sync.RWMutex
	state State
	// gen counts identity changes made by login, register and logout.
	gen uint64

	bootOnce sync.Once
	ready    chan struct{}
	// readyOnce guards close(ready); login, register and logout may settle
	// the loading state before Bootstrap does.
	readyOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.NewSlogLogger(l).With("component", "session")
	}
}

// NewManager returns a Manager in the loading state.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		logger:  logging.Discard(),
		state:   State{Loading: true},
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap fetches the current identity. The fetch runs at most once per
// Manager; later and concurrent callers wait for it and get the settled
// state. Every failure ends as "no identity" with Loading false.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.bootOnce.Do(func() {
		m.bootstrap(ctx)
	})
	<-m.ready
	return m.State()
}

func (m *Manager) bootstrap(ctx context.Context) {
	defer m.settle()

	if m.backend == nil {
		m.logger.Warn(ctx, "session bootstrap skipped", "reason", "no backend")
		return
	}

	gen := m.generation()
	resp, err := m.backend.Me(ctx)

	var identity UserProfile
	switch {
	case err == nil && resp.Success:
		identity = resp.User
		m.logger.Debug(ctx, "session bootstrap", "authenticated", resp.User.Present())
	case err == nil:
		m.logger.Debug(ctx, "session bootstrap", "authenticated", false, "kind", KindUnauthenticated.String())
	case errors.Is(err, ErrNetworkFailure):
		m.logger.Warn(ctx, "session bootstrap failed", "kind", KindOf(err).String(), "error", err)
	default:
		m.logger.Debug(ctx, "session bootstrap", "authenticated", false, "kind", KindOf(err).String())
	}

	if !m.setIdentityIfUnchanged(gen, identity) {
		m.logger.Debug(ctx, "session bootstrap result discarded", "reason", "superseded")
	}
}

// State returns a snapshot. Before bootstrap settles Loading is true.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Ready is closed once the loading state has settled.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until the loading state settles or ctx is done.
func (m *Manager) Wait(ctx context.Context) (State, error) {
	select {
	case <-m.ready:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// Login authenticates with the backend and caches the returned identity.
// Failures are returned as *Error and leave the cached identity unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	return m.authenticate(ctx, "login", func(b Backend) (AuthResponse, error) {
		return b.Login(ctx, Credentials{Email: email, Password: password})
	})
}

// Register creates an account and caches the returned identity. The error
// contract is the same as Login.
func (m *Manager) Register(ctx context.Context, name, email, password string) (AuthResponse, error) {
	return m.authenticate(ctx, "register", func(b Backend) (AuthResponse, error) {
		return b.Register(ctx, Registration{Name: name, Email: email, Password: password})
	})
}

func (m *Manager) authenticate(ctx context.Context, op string, call func(Backend) (AuthResponse, error)) (AuthResponse, error) {
	if m.backend == nil {
		return AuthResponse{}, &Error{Kind: KindNetworkFailure, Op: op, Err: errors.New("no backend configured")}
	}

	resp, err := call(m.backend)
	if err != nil {
		m.logger.Debug(ctx, "session "+op+" failed", "kind", KindOf(err).String())
		return resp, asSessionError(op, err)
	}
	if !resp.Success {
		return resp, &Error{Kind: KindBackendRejected, Op: op, Message: resp.Message}
	}

	m.setIdentity(resp.User)
	m.settle()
	return resp, nil
}

// Logout asks the backend to end the session and then clears the local
// identity whatever the outcome.
func (m *Manager) Logout(ctx context.Context) {
	if m.backend != nil {
		if err := m.backend.Logout(ctx); err != nil {
			m.logger.Warn(ctx, "session logout request failed", "kind", KindOf(err).String(), "error", err)
		}
	}
	m.setIdentity(nil)
	m.settle()
}

func (m *Manager) setIdentity(p UserProfile) {
	p = p.clone()
	m.mu.Lock()
	m.state.Identity = p
	m.gen++
	m.mu.Unlock()
}

// setIdentityIfUnchanged applies a bootstrap result unless login, register
// or logout changed the identity after gen was read.
func (m *Manager) setIdentityIfUnchanged(gen uint64, p UserProfile) bool {
	p = p.clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.state.Identity = p
	return true
}

func (m *Manager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *Manager) settle() {
	m.mu.Lock()
	m.state.Loading = false
	m.mu.Unlock()
	m.readyOnce.Do(func() { close(m.ready) })
}

// asSessionError keeps *Error values and classifies anything else from a
// custom Backend as a network failure.
func asSessionError(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindNetworkFailure, Op: op, Err: err}
}
