// File: services/auth_session.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pickle-web/apiclient"
	"pickle-web/logger"
	"pickle-web/models"
)

// Session keys holding the credential and the resolved user.
const (
	SessionTokenKey = "token"
	SessionUserKey  = "user"
)

// MsgSessionCheckFailed is shown when the backend could not be reached to
// verify a stored credential.
const MsgSessionCheckFailed = "We could not verify your session. Please try again."

// SessionBacking is the part of a browser session the auth store needs.
// sessions.Session from gin-contrib satisfies it.
type SessionBacking interface {
	Get(key interface{}) interface{}
	Set(key interface{}, val interface{})
	Delete(key interface{})
	Save() error
}

// AuthAPI is the part of the backend the auth store calls.
type AuthAPI interface {
	CurrentUser(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
	LoginURL() string
}

// AuthState is what pages know about the signed-in user.
type AuthState struct {
	IsAuthenticated bool
	User            *models.User
	Loading         bool
	Error           string
}

// AuthSession owns the AuthState of one browser session. One is built per
// request and passed to the controllers; there is no global auth state.
type AuthSession struct {
	api   AuthAPI
	store SessionBacking
	state AuthState
	now   func() time.Time
}

// NewAuthSession starts in the loading state.
func NewAuthSession(api AuthAPI, store SessionBacking) *AuthSession {
	return &AuthSession{
		api:   api,
		store: store,
		state: AuthState{Loading: true},
		now:   time.Now,
	}
}

// State returns a copy of the current state.
func (s *AuthSession) State() AuthState {
	return s.state
}

// Token returns the stored credential, if any.
func (s *AuthSession) Token() string {
	token, _ := s.store.Get(SessionTokenKey).(string)
	return token
}

// Context returns ctx carrying the stored credential for API calls.
func (s *AuthSession) Context(ctx context.Context) context.Context {
	return apiclient.WithToken(ctx, s.Token())
}

// LoginURL is where the browser goes to sign in. It is a redirect only; the
// state changes when the callback delivers a token.
func (s *AuthSession) LoginURL() string {
	return s.api.LoginURL()
}

// Resolve checks the stored credential once and settles the state.
func (s *AuthSession) Resolve(ctx context.Context) AuthState {
	if !s.state.Loading {
		return s.state
	}

	token := s.Token()
	if token == "" {
		s.setUnauthenticated("")
		return s.state
	}

	if expired(token, s.now()) {
		logger.Info.Println("AuthSession.Resolve: stored credential has expired, clearing it")
		s.clearCredential()
		s.setUnauthenticated("")
		return s.state
	}

	if user, ok := s.cachedUser(); ok {
		s.setAuthenticated(user)
		return s.state
	}

	user, err := s.api.CurrentUser(apiclient.WithToken(ctx, token))
	switch {
	case err == nil:
		s.rememberUser(user)
		s.setAuthenticated(user)
	case apiclient.IsUnauthorized(err):
		logger.Info.Printf("AuthSession.Resolve: credential rejected: %v", err)
		s.clearCredential()
		s.setUnauthenticated("")
	default:
		logger.Error.Printf("AuthSession.Resolve: failed to resolve current user: %v", err)
		s.setUnauthenticated(MsgSessionCheckFailed)
	}
	return s.state
}

// LoginWithToken stores a freshly issued credential and resolves its user.
func (s *AuthSession) LoginWithToken(ctx context.Context, token string) error {
	s.store.Set(SessionTokenKey, token)
	s.store.Delete(SessionUserKey)

	user, err := s.api.CurrentUser(apiclient.WithToken(ctx, token))
	if err != nil {
		s.clearCredential()
		s.setUnauthenticated("Failed to log in")
		return fmt.Errorf("resolve user for new token: %w", err)
	}
	s.rememberUser(user)
	s.setAuthenticated(user)
	return nil
}

// Logout tells the backend and then forgets the credential, whatever the
// backend said. The backend error is returned for logging only.
func (s *AuthSession) Logout(ctx context.Context) error {
	var err error
	if token := s.Token(); token != "" {
		err = s.api.Logout(apiclient.WithToken(ctx, token))
	}
	s.clearCredential()
	s.setUnauthenticated("")
	if err != nil {
		return fmt.Errorf("backend logout: %w", err)
	}
	return nil
}

// Expire forgets a credential the backend has rejected outside Resolve.
func (s *AuthSession) Expire() {
	s.clearCredential()
	s.setUnauthenticated("")
}

// ------------------ helpers ------------------

func (s *AuthSession) setAuthenticated(user models.User) {
	s.state = AuthState{IsAuthenticated: true, User: &user}
}

func (s *AuthSession) setUnauthenticated(msg string) {
	s.state = AuthState{Error: msg}
}

func (s *AuthSession) clearCredential() {
	s.store.Delete(SessionTokenKey)
	s.store.Delete(SessionUserKey)
	s.save()
}

func (s *AuthSession) rememberUser(user models.User) {
	data, err := json.Marshal(user)
	if err != nil {
		logger.Warn.Printf("AuthSession: failed to encode user %s: %v", user.ID, err)
		return
	}
	s.store.Set(SessionUserKey, string(data))
	s.save()
}

func (s *AuthSession) cachedUser() (models.User, bool) {
	raw, ok := s.store.Get(SessionUserKey).(string)
	if !ok || raw == "" {
		return models.User{}, false
	}
	user, err := models.DecodeUser([]byte(raw))
	if err != nil {
		logger.Warn.Printf("AuthSession: dropping unreadable cached user: %v", err)
		s.store.Delete(SessionUserKey)
		return models.User{}, false
	}
	return user, true
}

func (s *AuthSession) save() {
	if err := s.store.Save(); err != nil {
		logger.Error.Printf("AuthSession: failed to save session: %v", err)
	}
}

// expired reads the exp claim without verifying the signature; the backend
// stays the authority. Tokens that are not JWTs are never treated as expired.
func expired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(now)
}
