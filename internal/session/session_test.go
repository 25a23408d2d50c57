package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/mockapi"
	"github.com/tgienger/coreterra/internal/nav"
)

type fixture struct {
	backend *mockapi.Server
	srv     *httptest.Server
	tokens  *api.MemoryTokens
	nav     *nav.Recorder
	session *Session
}

func setup(t *testing.T, token string) *fixture {
	t.Helper()
	backend, err := mockapi.New(mockapi.DefaultSeed(), mockapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	f := &fixture{backend: backend, srv: srv, tokens: api.NewMemoryTokens(token), nav: &nav.Recorder{}}
	client, err := api.New(srv.URL, f.tokens, api.WithNavigator(f.nav))
	require.NoError(t, err)
	f.session = New(client)
	return f
}

func (f *fixture) token(t *testing.T) string {
	tok, err := f.tokens.Token()
	require.NoError(t, err)
	return tok
}

func TestStartsLoading(t *testing.T) {
	f := setup(t, "")
	assert.True(t, f.session.Loading())
	assert.False(t, f.session.IsAuthenticated())
}

func TestRestoreWithoutToken(t *testing.T) {
	f := setup(t, "")
	require.NoError(t, f.session.Restore(context.Background()))
	assert.False(t, f.session.Loading())
	assert.False(t, f.session.IsAuthenticated())
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/api/auth/me"))
}

func TestRestoreWithValidToken(t *testing.T) {
	f := setup(t, "")
	tok, err := f.backend.IssueToken(mockapi.DefaultUsername, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.tokens.SetToken(tok))

	require.NoError(t, f.session.Restore(context.Background()))
	assert.False(t, f.session.Loading())
	require.True(t, f.session.IsAuthenticated())

	u, ok := f.session.User()
	require.True(t, ok)
	assert.Equal(t, "Alex Rivera", u.Name)
	assert.Equal(t, tok, f.token(t))
}

func TestRestoreWithRejectedToken(t *testing.T) {
	f := setup(t, "garbage")
	require.NoError(t, f.session.Restore(context.Background()))

	assert.False(t, f.session.Loading())
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.token(t))
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/api/users/me"), "no user fetch after rejection")
}

func TestRestoreWithExpiredTokenSkipsNetwork(t *testing.T) {
	f := setup(t, "")
	tok, err := f.backend.IssueToken(mockapi.DefaultUsername, -time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.tokens.SetToken(tok))

	require.NoError(t, f.session.Restore(context.Background()))
	assert.Empty(t, f.token(t))
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/api/auth/me"))
	assert.False(t, f.session.IsAuthenticated())
}

func TestRestoreKeepsTokenWhenBackendUnreachable(t *testing.T) {
	tokens := api.NewMemoryTokens("opaque-token")
	client, err := api.New("http://127.0.0.1:1", tokens)
	require.NoError(t, err)
	s := New(client)

	err = s.Restore(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsFatal(err))
	assert.False(t, s.Loading())

	tok, _ := tokens.Token()
	assert.Equal(t, "opaque-token", tok)
}

func TestLogin(t *testing.T) {
	f := setup(t, "")
	var seen []Status
	cancel := f.session.Subscribe(func(s Status) { seen = append(seen, s) })
	defer cancel()

	require.NoError(t, f.session.Login(context.Background(), mockapi.DefaultUsername, mockapi.DefaultPassword))
	assert.True(t, f.session.IsAuthenticated())
	assert.NotEmpty(t, f.token(t))

	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.True(t, last.Authenticated)
	require.NotNil(t, last.User)
	assert.EqualValues(t, 1, last.User.ID)

	claims, err := f.session.Claims()
	require.NoError(t, err)
	assert.EqualValues(t, 1, claims.UserID)
	assert.Equal(t, mockapi.DefaultUsername, claims.Username)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestLoginRejected(t *testing.T) {
	f := setup(t, "")
	err := f.session.Login(context.Background(), mockapi.DefaultUsername, "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Incorrect username or password", authErr.Message)
	assert.True(t, api.IsUnauthorized(err))

	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.token(t))
}

func TestLoginClearsTokenWhenUserFetchFails(t *testing.T) {
	f := setup(t, "")
	f.backend.Fail(http.MethodGet, "/api/users/me", http.StatusInternalServerError)

	err := f.session.Login(context.Background(), mockapi.DefaultUsername, mockapi.DefaultPassword)
	require.Error(t, err)
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.token(t))

	// a later restore has nothing to sign in with
	f.backend.Clear()
	require.NoError(t, f.session.Restore(context.Background()))
	assert.False(t, f.session.IsAuthenticated())
	assert.Zero(t, f.backend.Calls(http.MethodGet, "/api/auth/me"))
}

func TestLoginValidatesInput(t *testing.T) {
	f := setup(t, "")
	err := f.session.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Zero(t, f.backend.Calls(http.MethodPost, "/api/auth/login"))
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setup(t, "")
	require.NoError(t, f.session.Login(context.Background(), mockapi.DefaultUsername, mockapi.DefaultPassword))

	f.session.Logout()
	once := f.session.Status()
	onceToken := f.token(t)

	f.session.Logout()
	assert.Equal(t, once, f.session.Status())
	assert.Equal(t, onceToken, f.token(t))
	assert.False(t, f.session.IsAuthenticated())
	assert.Empty(t, f.token(t))
}

func TestSetUserRefreshesSignedInUserOnly(t *testing.T) {
	f := setup(t, "")
	u, ok := f.session.User()
	require.False(t, ok)
	u.Name = "Ghost"
	assert.False(t, f.session.SetUser(u))
	assert.False(t, f.session.IsAuthenticated())

	require.NoError(t, f.session.Login(context.Background(), mockapi.DefaultUsername, mockapi.DefaultPassword))
	u, ok = f.session.User()
	require.True(t, ok)
	u.Gold = 999
	assert.True(t, f.session.SetUser(u))

	got, ok := f.session.User()
	require.True(t, ok)
	assert.Equal(t, 999, got.Gold)

	f.session.Logout()
	assert.False(t, f.session.SetUser(got))
	assert.False(t, f.session.IsAuthenticated())
}

func TestUnsubscribe(t *testing.T) {
	f := setup(t, "")
	calls := 0
	cancel := f.session.Subscribe(func(Status) { calls++ })
	cancel()
	require.NoError(t, f.session.Restore(context.Background()))
	assert.Zero(t, calls)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  7,
		"username": "sam",
		"exp":      exp.Unix(),
	}).SignedString([]byte("any"))
	require.NoError(t, err)

	c, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.EqualValues(t, 7, c.UserID)
	assert.Equal(t, "sam", c.Username)
	assert.True(t, exp.Equal(c.ExpiresAt))

	_, err = ParseClaims("opaque")
	assert.Error(t, err)
}
