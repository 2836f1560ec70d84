package session

import (
	"context"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

// State is the session lifecycle the console enforces. Expiry is never
// tracked locally; it is discovered when the server rejects the token.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateVerifying       State = "verifying"
	StateAuthenticated   State = "authenticated"
)

// Session is the client-side view of an acquired token.
type Session struct {
	Token string
	Email string
	Role  models.UserRole
}

// Manager owns the token lifecycle: acquisition, storage, verification and
// release. Exactly one session exists client-side at a time.
type Manager struct {
	api    *api.Client
	store  TokenStore
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	profile *models.UserProfile
}

// NewManager wires the manager with its transport and token store.
func NewManager(client *api.Client, store TokenStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:    client,
		store:  store,
		logger: logger,
		state:  StateUnauthenticated,
	}
}

// Acquire exchanges credentials for a token, persists it together with the
// display email decoded from the token payload (no signature verification,
// display only), and returns the session.
func (m *Manager) Acquire(ctx context.Context, creds models.Credentials) (*Session, error) {
	var token models.TokenResponse
	if err := m.api.Post(ctx, "/auth/login", creds, &token); err != nil {
		return nil, m.acquireError(err)
	}

	sess := &Session{Token: token.AccessToken}
	if claims := decodeClaims(token.AccessToken); claims != nil {
		sess.Email = claims.Email
		sess.Role = claims.Role
	}

	if err := m.store.Save(sess.Token, sess.Email); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindAuth, 0, "failed to persist session")
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.logger.Info("session acquired", zap.String("email", sess.Email))
	return sess, nil
}

// Register submits the self-registration form. No session is created; the
// caller still has to log in.
func (m *Manager) Register(ctx context.Context, form models.RegistrationForm) error {
	if err := m.api.Post(ctx, "/auth/register", form, nil); err != nil {
		appErr := apperrors.FromError(err)
		if appErr.Status == 0 {
			return apperrors.Wrap(appErr, apperrors.KindAuth, 0, apperrors.ErrConnection.Message)
		}
		return apperrors.Wrap(appErr, apperrors.KindAuth, appErr.Status, appErr.Message)
	}
	return nil
}

// Verify replays the stored token against the who-am-I endpoint. Every
// failure collapses to the single unauthenticated outcome and clears the
// stored session; expired, revoked and malformed tokens are
// indistinguishable on purpose.
func (m *Manager) Verify(ctx context.Context) (*models.UserProfile, error) {
	if _, _, err := m.store.Load(); err != nil {
		m.Release()
		return nil, apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}

	m.mu.Lock()
	m.state = StateVerifying
	m.mu.Unlock()

	var profile models.UserProfile
	if err := m.api.Get(ctx, "/auth/me", &profile); err != nil {
		m.Release()
		return nil, apperrors.Clone(apperrors.ErrUnauthenticated, "")
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.profile = &profile
	m.mu.Unlock()

	return &profile, nil
}

// Release clears the stored token and identity unconditionally. Calling it
// twice leaves the session state identical to calling it once.
func (m *Manager) Release() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear session store", zap.Error(err))
	}

	m.mu.Lock()
	m.state = StateUnauthenticated
	m.profile = nil
	m.mu.Unlock()
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Profile returns the verified profile, if any.
func (m *Manager) Profile() *models.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// acquireError maps auth endpoint failures onto two outcomes: rejected
// credentials or an unreachable server.
func (m *Manager) acquireError(err error) error {
	appErr := apperrors.FromError(err)
	if appErr.Status >= 400 && appErr.Status < 500 {
		return apperrors.Clone(apperrors.ErrInvalidCredentials, appErr.Message)
	}
	if appErr.Status >= 500 {
		return apperrors.Wrap(appErr, apperrors.KindAuth, appErr.Status, appErr.Message)
	}
	return apperrors.Wrap(appErr, apperrors.KindAuth, 0, apperrors.ErrConnection.Message)
}

// decodeClaims parses the token payload segment without verifying the
// signature; the claims feed the UI only, never authorization decisions.
func decodeClaims(token string) *models.TokenClaims {
	claims := &models.TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}
