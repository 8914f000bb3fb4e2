package store

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/validation"
	"github.com/sirupsen/logrus"
)

// MinPasswordLength is the shortest password accepted for a new account.
const MinPasswordLength = 6

// UserAPI is the backend surface of UserStore. Update and delete are keyed by
// the user's current name.
type UserAPI interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	UpdateUser(ctx context.Context, username string, u model.User) error
	DeleteUser(ctx context.Context, username string) error
}

// Session is the part of the session UserStore needs.
type Session interface {
	Gate
	IsAdmin() bool
	CanEditUser(name string) bool
	IsCurrent(u model.User) bool
	Logout(ctx context.Context) error
}

// UserStore mirrors the user list with a durable-cache fallback. Reads fall
// back to the cached list; mutations that cannot reach the server are applied
// to the cached list by id.
type UserStore struct {
	*RemoteStore[model.User, NoQuery]

	api     UserAPI
	sess    Session
	cache   cache.Cache
	offline bool
}

// NewUserStore creates a UserStore.
func NewUserStore(api UserAPI, sess Session, c cache.Cache, log logrus.FieldLogger) *UserStore {
	s := &UserStore{api: api, sess: sess, cache: c}
	s.RemoteStore = NewRemoteStore[model.User, NoQuery]("users", "Failed to load users", s.fetch, log)
	return s
}

func (s *UserStore) fetch(ctx context.Context, _ NoQuery) ([]model.User, error) {
	users, err := s.api.ListUsers(ctx)
	if err == nil {
		if cerr := s.cache.Set(ctx, cache.KeyUsers, redactAll(users)); cerr != nil {
			config.LogError(s.log, "store", "fetch", "write through users", nil, cerr)
		}
		s.setOffline(false)
		return users, nil
	}

	var cached []model.User
	ok, cerr := s.cache.Get(ctx, cache.KeyUsers, &cached)
	if cerr != nil || !ok {
		return nil, err
	}
	s.log.WithError(err).Warn("serving cached users")
	s.setOffline(true)
	return cached, nil
}

// Offline reports whether the snapshot came from the cache.
func (s *UserStore) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

func (s *UserStore) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

// Create adds a user. Admin only.
func (s *UserStore) Create(ctx context.Context, u model.User) error {
	if err := s.sess.RequireAdmin(); err != nil {
		return err
	}
	u = normalizeUser(u)
	if err := s.checkNew(u); err != nil {
		return err
	}

	return s.withFallback(ctx, func(ctx context.Context) error {
		_, err := s.api.CreateUser(ctx, u)
		return err
	}, func(users []model.User) ([]model.User, bool) {
		local := u.Redacted()
		local.ID = uuid.NewString()
		return append(users, local), true
	})
}

// Signup registers a new account. The role is always user and nothing is
// cached; the account becomes usable by logging in.
func (s *UserStore) Signup(ctx context.Context, u model.User) error {
	u = normalizeUser(u)
	u.Role = model.RoleUser
	if err := s.checkNew(u); err != nil {
		return err
	}
	_, err := s.api.CreateUser(ctx, u)
	return err
}

// Update changes the user currently named originalName. Admins may update
// anyone; other users only themselves and never their role. An empty
// password leaves it unchanged.
func (s *UserStore) Update(ctx context.Context, originalName string, u model.User) error {
	if !s.sess.CanEditUser(originalName) {
		return apperr.ErrAdminRequired
	}
	if !s.sess.IsAdmin() && u.Role == model.RoleAdmin {
		return apperr.ErrAdminRequired
	}
	u = normalizeUser(u)
	if err := validation.Struct(u); err != nil {
		return err
	}
	if u.Password != "" && utf8.RuneCountInString(u.Password) < MinPasswordLength {
		return passwordTooShort()
	}
	exceptID := u.ID
	if exceptID == "" {
		if current, ok := s.FindByName(originalName); ok {
			exceptID = current.ID
		}
	}
	if err := s.checkEmail(u.Email, exceptID); err != nil {
		return err
	}

	return s.withFallback(ctx, func(ctx context.Context) error {
		return s.api.UpdateUser(ctx, originalName, u)
	}, func(users []model.User) ([]model.User, bool) {
		i := indexUser(users, u.ID, originalName)
		if i < 0 {
			return users, false
		}
		updated := u.Redacted()
		if updated.ID == "" {
			updated.ID = users[i].ID
		}
		users[i] = updated
		return users, true
	})
}

// Delete removes u. Deleting the logged-in user ends the session.
func (s *UserStore) Delete(ctx context.Context, u model.User) error {
	if err := s.sess.RequireAdmin(); err != nil {
		return err
	}
	self := s.sess.IsCurrent(u)

	err := s.withFallback(ctx, func(ctx context.Context) error {
		return s.api.DeleteUser(ctx, u.Name)
	}, func(users []model.User) ([]model.User, bool) {
		i := indexUser(users, u.ID, u.Name)
		if i < 0 {
			return users, false
		}
		return append(users[:i], users[i+1:]...), true
	})

	var local *apperr.LocalFallbackError
	if self && (err == nil || errors.As(err, &local)) {
		if lerr := s.sess.Logout(ctx); lerr != nil {
			config.LogError(s.log, "store", "Delete", "logout deleted user", nil, lerr)
		}
	}
	return err
}

// Find returns the user with id from the snapshot.
func (s *UserStore) Find(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.items {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

// FindByName returns the user named name from the snapshot, ignoring case.
func (s *UserStore) FindByName(name string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.items {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return model.User{}, false
}

// withFallback runs op through Mutate. If the server could not be reached,
// local is applied to the cached list instead and a LocalFallbackError
// returned. Server rejections never touch the cache, and neither does a
// change local cannot place; both return the remote error.
func (s *UserStore) withFallback(ctx context.Context, op func(context.Context) error, local func([]model.User) ([]model.User, bool)) error {
	err := s.Mutate(ctx, op)
	if err == nil || !apperr.IsTransport(err) {
		return err
	}

	var users []model.User
	ok, cerr := s.cache.Get(ctx, cache.KeyUsers, &users)
	if cerr != nil {
		config.LogError(s.log, "store", "withFallback", "read cached users", nil, cerr)
		return err
	}
	if !ok {
		users = s.Snapshot()
	}

	users, ok = local(users)
	if !ok {
		return err
	}
	if cerr := s.cache.Set(ctx, cache.KeyUsers, redactAll(users)); cerr != nil {
		config.LogError(s.log, "store", "withFallback", "write cached users", nil, cerr)
		return err
	}
	s.setOffline(true)
	s.replace(users)
	return &apperr.LocalFallbackError{Err: err}
}

// indexUser finds the user with id, or the one named name when the id is
// empty or unknown.
func indexUser(users []model.User, id, name string) int {
	if id != "" {
		for i, u := range users {
			if u.ID == id {
				return i
			}
		}
	}
	for i, u := range users {
		if name != "" && strings.EqualFold(u.Name, name) {
			return i
		}
	}
	return -1
}

func (s *UserStore) checkNew(u model.User) error {
	if err := validation.Struct(u); err != nil {
		return err
	}
	if utf8.RuneCountInString(u.Password) < MinPasswordLength {
		return passwordTooShort()
	}
	return s.checkEmail(u.Email, "")
}

func (s *UserStore) checkEmail(email, exceptID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.items {
		if strings.EqualFold(existing.Email, email) && existing.ID != exceptID {
			return apperr.Invalid("email", "Email %s is already registered", email)
		}
	}
	return nil
}

func passwordTooShort() error {
	return apperr.Invalid("password", "Password must be at least %d characters", MinPasswordLength)
}

func normalizeUser(u model.User) model.User {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	return u
}

func redactAll(users []model.User) []model.User {
	out := make([]model.User, len(users))
	for i, u := range users {
		out[i] = u.Redacted()
	}
	return out
}
