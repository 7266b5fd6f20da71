package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/xrpc"
	"go.uber.org/zap"
)

// defaultSessionLifetime is how long a Bluesky access token is reused.
// The server issues access tokens valid for about two hours.
const defaultSessionLifetime = 90 * time.Minute

// sessionFunc opens a new session
type sessionFunc func(ctx context.Context) (*xrpc.AuthInfo, error)

// SessionManager caches a Bluesky session until it expires
type SessionManager struct {
	mu        sync.Mutex
	session   *xrpc.AuthInfo
	createdAt time.Time
	lifetime  time.Duration
	create    sessionFunc
	now       func() time.Time
	logger    *zap.Logger
}

// NewSessionManager creates a session manager that opens sessions with create
func NewSessionManager(create sessionFunc, lifetime time.Duration, logger *zap.Logger) *SessionManager {
	if lifetime <= 0 {
		lifetime = defaultSessionLifetime
	}

	return &SessionManager{
		lifetime: lifetime,
		create:   create,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns a valid session, creating one if needed
func (sm *SessionManager) Get(ctx context.Context) (*xrpc.AuthInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.isValid() {
		sm.logger.Debug("Reusing Bluesky session",
			zap.String("did", sm.session.Did),
			zap.Time("created_at", sm.createdAt))
		return sm.session, nil
	}

	session, err := sm.create(ctx)
	if err != nil {
		return nil, &AuthError{Network: blueskyName, Err: err}
	}
	if session.AccessJwt == "" || session.Did == "" {
		return nil, &AuthError{Network: blueskyName, Err: errors.New("session response lacks token or DID")}
	}

	sm.session = session
	sm.createdAt = sm.now()

	sm.logger.Info("Bluesky session created",
		zap.String("handle", session.Handle),
		zap.String("did", session.Did),
		zap.Duration("lifetime", sm.lifetime))

	return session, nil
}

// Invalidate drops the cached session so the next Get authenticates again
func (sm *SessionManager) Invalidate() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.session = nil
}

// AuthError reports a failed login to a network
type AuthError struct {
	Network string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to authenticate to %s: %v", e.Network, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (sm *SessionManager) isValid() bool {
	if sm.session == nil {
		return false
	}
	return sm.now().Sub(sm.createdAt) < sm.lifetime
}
