package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/models"
)

// ErrAuth is matched by every credential rejection
var ErrAuth = errors.New("authentication failed")

// AuthError is returned by Login when the backend (or local validation)
// rejects the credentials
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return ErrAuth.Error()
	}
	return ErrAuth.Error() + ": " + e.Message
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuth}
	}
	return []error{ErrAuth, e.Err}
}

// Status is what observers see after every transition
type Status struct {
	Authenticated bool
	Loading       bool
	User          *models.User
}

// Claims is the unverified content of the stored token
type Claims struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

type credentials struct {
	Username string `validate:"required,max=100"`
	Password string `validate:"required,max=200"`
}

// Session tracks who is signed in. The zero value is not usable; call New.
type Session struct {
	client   *api.Client
	tokens   api.TokenStore
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger

	mu      sync.RWMutex
	user    *models.User
	loading bool
	subs    map[int]func(Status)
	nextSub int
}

type Option func(*Session)

// WithClock replaces time.Now for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns a session using the client's token store. It starts in the
// loading state until Restore has run.
func New(client *api.Client, opts ...Option) *Session {
	s := &Session{
		client:   client,
		tokens:   client.Tokens(),
		validate: validator.New(),
		now:      time.Now,
		log:      logging.Session(),
		loading:  true,
		subs:     map[int]func(Status){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore validates a previously stored token. A token that is expired or
// rejected by the backend is discarded without fetching a user. When the
// backend cannot be reached the token is kept and the transport error
// returned. Loading is false afterwards in every case.
func (s *Session) Restore(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	if token == "" {
		return nil
	}

	if claims, err := ParseClaims(token); err == nil && !claims.ExpiresAt.IsZero() && !claims.ExpiresAt.After(s.now()) {
		s.log.Info("stored token expired", "expired_at", claims.ExpiresAt)
		s.clearToken()
		return nil
	}

	if _, err := s.client.Auth().Me(ctx); err != nil {
		if api.IsFatal(err) {
			return err
		}
		s.log.Info("stored token rejected", "error", err)
		s.clearToken()
		return nil
	}

	s.fetchUser(ctx)
	return nil
}

// Login exchanges credentials for a token and loads the user
func (s *Session) Login(ctx context.Context, identifier, secret string) error {
	if err := s.validate.Struct(credentials{Username: identifier, Password: secret}); err != nil {
		return &AuthError{Message: "username and password are required", Err: err}
	}

	if _, err := s.client.Auth().Login(ctx, identifier, secret); err != nil {
		if api.IsUnauthorized(err) || api.IsRejected(err) {
			var apiErr *api.Error
			errors.As(err, &apiErr)
			return &AuthError{Message: apiErr.Message, Err: err}
		}
		return err
	}

	if u := s.fetchUser(ctx); u == nil {
		s.clearToken()
		return errors.New("signed in but could not load the user")
	}
	s.log.Info("signed in", "username", identifier)
	return nil
}

// Logout discards the token and the user. Calling it again is harmless.
func (s *Session) Logout() {
	s.clearToken()
	s.mu.Lock()
	changed := s.user != nil
	s.user = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// IsAuthenticated is true iff a user is loaded
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Loading is true while Restore runs
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// User returns a copy of the signed-in user
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return s.user.Clone(), true
}

// SetUser replaces the signed-in user with a fresher copy, e.g. after the
// state store refreshed it. It never signs anyone in: when no user is loaded
// it does nothing and returns false.
func (s *Session) SetUser(u models.User) bool {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return false
	}
	c := u.Clone()
	s.user = &c
	s.mu.Unlock()
	s.notify()
	return true
}

// Status returns the current state
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

// Claims decodes the stored token without verifying it
func (s *Session) Claims() (Claims, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, errors.New("not signed in")
	}
	return ParseClaims(token)
}

// Subscribe registers fn for every status change. The returned function
// removes it.
func (s *Session) Subscribe(fn func(Status)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// ParseClaims reads user_id, username and exp from a JWT without checking
// its signature. The backend remains the only judge of validity.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	var c Claims
	if id, ok := mc["user_id"].(float64); ok {
		c.UserID = int64(id)
	}
	if name, ok := mc["username"].(string); ok {
		c.Username = name
	} else if sub, ok := mc["sub"].(string); ok {
		c.Username = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

func (s *Session) fetchUser(ctx context.Context) *models.User {
	u, err := s.client.Users().Me(ctx)
	if err != nil {
		s.log.Error("failed to fetch user", "error", err)
		return nil
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.notify()
	return u
}

func (s *Session) clearToken() {
	if err := s.tokens.ClearToken(); err != nil {
		s.log.Error("clear stored token", "error", err)
	}
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	changed := s.loading != v
	s.loading = v
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *Session) statusLocked() Status {
	st := Status{Authenticated: s.user != nil, Loading: s.loading}
	if s.user != nil {
		u := s.user.Clone()
		st.User = &u
	}
	return st
}

func (s *Session) notify() {
	s.mu.RLock()
	st := s.statusLocked()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	fns := make([]func(Status), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(st)
	}
}
