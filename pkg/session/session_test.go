package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	resp  *model.LoginResponse
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, _ model.Credentials) (*model.LoginResponse, error) {
	f.calls++
	return f.resp, f.err
}

func newState(auth Authenticator) (*State, *cache.Memory) {
	mem := cache.NewMemory()
	logger, _ := test.NewNullLogger()
	return New(auth, mem, logger), mem
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "alice", Role: model.RoleAdmin, Token: "tok"}}
	s, mem := newState(auth)

	notified := 0
	s.Subscribe(func() { notified++ })

	user, err := s.Login(context.Background(), model.Credentials{Email: " alice@example.com ", Password: "secret1"}, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.NoError(t, s.RequireAdmin())
	assert.Equal(t, 1, notified)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	assert.NotContains(t, mem.Raw(cache.KeyCurrentUser), "password")
	assert.NotContains(t, mem.Raw(cache.KeyCurrentUser), "secret1")
}

func TestLogin_RoleMismatch(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "bob", Role: model.RoleUser, Token: "tok"}}
	s, mem := newState(auth)

	_, err := s.Login(context.Background(), model.Credentials{Email: "bob@example.com", Password: "pw"}, model.RoleAdmin)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "log in using the user tab", err.Error())

	assert.False(t, s.IsAuthenticated())
	assert.False(t, mem.Has(cache.KeyCurrentUser))
	assert.False(t, mem.Has(cache.KeyAuthToken))
}

func TestLogin_MissingFields(t *testing.T) {
	auth := &fakeAuth{}
	s, _ := newState(auth)

	_, err := s.Login(context.Background(), model.Credentials{Password: "pw"}, model.RoleUser)
	assert.True(t, apperr.IsValidation(err))
	_, err = s.Login(context.Background(), model.Credentials{Email: "a@b.c"}, model.RoleUser)
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, auth.calls)
}

func TestLogin_RemoteFailure(t *testing.T) {
	auth := &fakeAuth{err: &apperr.RemoteError{StatusCode: 401, Message: "Invalid credentials"}}
	s, _ := newState(auth)

	_, err := s.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"}, model.RoleUser)
	assert.Equal(t, "Invalid credentials", apperr.Message(err, "Login failed"))
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_NoTokenDropsPreviousToken(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "alice", Role: model.RoleAdmin, Token: "old"}}
	s, mem := newState(auth)
	ctx := context.Background()

	_, err := s.Login(ctx, model.Credentials{Email: "alice@example.com", Password: "pw"}, model.RoleAdmin)
	require.NoError(t, err)
	require.True(t, mem.Has(cache.KeyAuthToken))

	auth.resp = &model.LoginResponse{Username: "bob", Role: model.RoleUser}
	_, err = s.Login(ctx, model.Credentials{Email: "bob@example.com", Password: "pw"}, model.RoleUser)
	require.NoError(t, err)
	assert.False(t, mem.Has(cache.KeyAuthToken))

	token, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLogout(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "alice", Role: model.RoleUser, Token: "tok"}}
	s, mem := newState(auth)
	ctx := context.Background()

	_, err := s.Login(ctx, model.Credentials{Email: "a@b.c", Password: "pw"}, model.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.ErrorIs(t, s.RequireAdmin(), apperr.ErrNotAuthenticated)
	assert.False(t, mem.Has(cache.KeyCurrentUser))
	assert.False(t, mem.Has(cache.KeyAuthToken))
}

func TestRestore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		token    string
		restored bool
	}{
		{"opaque token", "opaque", true},
		{"no token", "", true},
		{"valid jwt", "", true},
		{"expired jwt", "", false},
	}
	tests[2].token = signed(t, now.Add(time.Hour))
	tests[3].token = signed(t, now.Add(-time.Hour))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem := newState(&fakeAuth{})
			s.now = func() time.Time { return now }
			ctx := context.Background()

			require.NoError(t, mem.Set(ctx, cache.KeyCurrentUser, model.User{Name: "alice", Role: model.RoleUser}))
			if tt.token != "" {
				require.NoError(t, mem.Set(ctx, cache.KeyAuthToken, tt.token))
			}

			ok, err := s.Restore(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.restored, ok)
			assert.Equal(t, tt.restored, s.IsAuthenticated())
			assert.Equal(t, tt.restored, mem.Has(cache.KeyCurrentUser))
		})
	}
}

func TestRestore_Empty(t *testing.T) {
	s, _ := newState(&fakeAuth{})
	ok, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissions(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "bob", Role: model.RoleUser}}
	s, _ := newState(auth)
	assert.False(t, s.CanEditUser("bob"))

	_, err := s.Login(context.Background(), model.Credentials{Email: "bob@example.com", Password: "pw"}, model.RoleUser)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RequireAdmin(), apperr.ErrAdminRequired)
	assert.True(t, s.CanEditUser("Bob"))
	assert.False(t, s.CanEditUser("alice"))
	assert.True(t, s.IsCurrent(model.User{Name: "bob"}))
	assert.True(t, s.IsCurrent(model.User{Name: "robert", Email: "BOB@example.com"}))
	assert.False(t, s.IsCurrent(model.User{Name: "alice"}))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	auth := &fakeAuth{resp: &model.LoginResponse{Username: "bob", Role: model.RoleUser}}
	s, _ := newState(auth)

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })
	unsubscribe()

	_, err := s.Login(context.Background(), model.Credentials{Email: "b@x.y", Password: "pw"}, model.RoleUser)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestToken_CacheError(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(&fakeAuth{}, brokenCache{}, logger)
	_, err := s.Token(context.Background())
	assert.Error(t, err)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) { return false, errors.New("disk gone") }
func (brokenCache) Set(context.Context, string, any) error          { return errors.New("disk gone") }
func (brokenCache) Delete(context.Context, ...string) error         { return errors.New("disk gone") }
func (brokenCache) Close() error                                    { return nil }
