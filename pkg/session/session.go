// Package session holds the identity of the logged-in user.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/sirupsen/logrus"
)

// Authenticator performs the login round trip.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error)
}

// State is the process-wide session. The zero value is not usable; create
// one with New.
type State struct {
	auth  Authenticator
	cache cache.Cache
	log   logrus.FieldLogger
	now   func() time.Time

	mu        sync.RWMutex
	user      *model.User
	listeners map[int]func()
	nextID    int
}

// New creates an unauthenticated session.
func New(auth Authenticator, c cache.Cache, log logrus.FieldLogger) *State {
	return &State{
		auth:      auth,
		cache:     c,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func()),
	}
}

// Login authenticates creds and establishes a session if the account has
// selectedRole. A mismatch establishes nothing.
func (s *State) Login(ctx context.Context, creds model.Credentials, selectedRole model.Role) (*model.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return nil, apperr.Invalid("email", "Email is required")
	}
	if creds.Password == "" {
		return nil, apperr.Invalid("password", "Password is required")
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	if resp.Role != selectedRole {
		return nil, apperr.Invalid("role", "log in using the %s tab", resp.Role)
	}

	user := model.User{
		Email: creds.Email,
		Name:  resp.Username,
		Role:  resp.Role,
	}

	if resp.Token != "" {
		if err := s.cache.Set(ctx, cache.KeyAuthToken, resp.Token); err != nil {
			return nil, err
		}
	} else if err := s.cache.Delete(ctx, cache.KeyAuthToken); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.KeyCurrentUser, user.Redacted()); err != nil {
		_ = s.cache.Delete(ctx, cache.KeyAuthToken)
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"user": user.Name, "role": user.Role}).Info("logged in")
	s.notify()
	return &user, nil
}

// Logout clears the session. Memory is cleared even if the cache cannot be.
func (s *State) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	err := s.cache.Delete(ctx, cache.KeyCurrentUser, cache.KeyAuthToken)
	if err != nil {
		config.LogError(s.log, "session", "Logout", "clear cached session", nil, err)
	}
	s.notify()
	return err
}

// Restore rebuilds the session from the cache, e.g. after a restart. An
// expired token ends the session instead.
func (s *State) Restore(ctx context.Context) (bool, error) {
	var user model.User
	ok, err := s.cache.Get(ctx, cache.KeyCurrentUser, &user)
	if err != nil {
		return false, err
	}
	if !ok || user.Name == "" || !user.Role.Valid() {
		return false, nil
	}

	var token string
	if _, err := s.cache.Get(ctx, cache.KeyAuthToken, &token); err != nil {
		return false, err
	}
	if token != "" && tokenExpired(token, s.now()) {
		s.log.WithField("user", user.Name).Info("cached token expired")
		return false, s.Logout(ctx)
	}

	user = user.Redacted()
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.notify()
	return true, nil
}

// tokenExpired reads the exp claim without verifying the signature; the
// server remains the authority. Tokens that are not JWTs never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// IsAuthenticated reports whether a user is logged in.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// CurrentUser returns a copy of the logged-in user.
func (s *State) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// IsAdmin reports whether the logged-in user is an admin.
func (s *State) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin()
}

// RequireAdmin returns nil for admin sessions.
func (s *State) RequireAdmin() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return apperr.ErrNotAuthenticated
	}
	if !s.user.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

// CanEditUser reports whether the session may edit the user named name.
// Admins may edit anyone, everyone else only themselves.
func (s *State) CanEditUser(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	return s.user.IsAdmin() || strings.EqualFold(s.user.Name, name)
}

// IsCurrent reports whether u is the logged-in user.
func (s *State) IsCurrent(u model.User) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	if u.ID != "" && s.user.ID != "" {
		return u.ID == s.user.ID
	}
	return strings.EqualFold(u.Name, s.user.Name) || (u.Email != "" && strings.EqualFold(u.Email, s.user.Email))
}

// Token returns the cached bearer token.
func (s *State) Token(ctx context.Context) (string, error) {
	var token string
	if _, err := s.cache.Get(ctx, cache.KeyAuthToken, &token); err != nil {
		if errors.Is(err, cache.ErrClosed) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

// Subscribe registers fn to run after every session change. The returned
// func unregisters it.
func (s *State) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *State) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
