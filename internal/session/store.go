// Package session keeps the gateway token and the signed-in user in a signed
// cookie and guards the pages that need them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/service/gateway"

	"github.com/gorilla/sessions"
)

const (
	cookieName = "prestalab"

	keyToken = "token"
	keyUser  = "user"
)

var ErrNoSession = errors.New("no active session")

// Identity is the signed-in user as seen by the handlers.
type Identity struct {
	Token string
	User  model.User
	Admin bool
}

func (i Identity) Email() string {
	return i.User.Email()
}

func (i Identity) UserID() int64 {
	return i.User.ID
}

// NewCookieStore returns a store signing cookies with key.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   8 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

type Store struct {
	store  sessions.Store
	auth   *service.AuthService
	admins []string
}

func New(store sessions.Store, auth *service.AuthService, admins []string) *Store {
	return &Store{store: store, auth: auth, admins: admins}
}

func (s *Store) get(r *http.Request) *sessions.Session {
	// a cookie that no longer verifies still yields a fresh session
	sess, _ := s.store.Get(r, cookieName)
	return sess
}

// Login checks the credentials with the backend and stores token and user.
func (s *Store) Login(w http.ResponseWriter, r *http.Request, email, password string) (Identity, error) {
	res, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		return Identity{}, err
	}

	user := model.User{Correo: strings.ToLower(strings.TrimSpace(email))}
	if acc := res.Account(); acc != nil {
		user = *acc
		if user.Correo == "" {
			user.Correo = strings.ToLower(strings.TrimSpace(email))
		}
	}
	if err := s.save(w, r, res.Token, user); err != nil {
		return Identity{}, err
	}
	return s.identity(res.Token, user), nil
}

// LoginMessage is the text shown on the login form for err.
func LoginMessage(err error) string {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	switch gateway.Status(err) {
	case http.StatusUnauthorized:
		return "Credenciales inválidas."
	case http.StatusNotFound:
		return "Usuario no encontrado."
	}
	return gateway.Message(err)
}

func (s *Store) save(w http.ResponseWriter, r *http.Request, token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	sess := s.get(r)
	sess.Values[keyToken] = token
	sess.Values[keyUser] = string(raw)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SetUser replaces the stored user record, keeping the token.
func (s *Store) SetUser(w http.ResponseWriter, r *http.Request, user model.User) error {
	token := s.Token(r)
	if token == "" {
		return ErrNoSession
	}
	return s.save(w, r, token, user)
}

// Logout drops the session cookie.
func (s *Store) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	sess.Values = make(map[any]any)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) Token(r *http.Request) string {
	token, _ := s.get(r).Values[keyToken].(string)
	return token
}

func (s *Store) User(r *http.Request) (model.User, bool) {
	raw, ok := s.get(r).Values[keyUser].(string)
	if !ok {
		return model.User{}, false
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return model.User{}, false
	}
	return user, true
}

func (s *Store) Email(r *http.Request) string {
	user, _ := s.User(r)
	return user.Email()
}

func (s *Store) UserID(r *http.Request) int64 {
	user, _ := s.User(r)
	return user.ID
}

func (s *Store) identity(token string, user model.User) Identity {
	return Identity{
		Token: token,
		User:  user,
		Admin: service.IsAdmin(user.Tipo, user.Email(), s.admins),
	}
}

// Identity reads the session; ok is false when there is no token.
func (s *Store) Identity(r *http.Request) (Identity, bool) {
	token := s.Token(r)
	if token == "" {
		return Identity{}, false
	}
	user, _ := s.User(r)
	return s.identity(token, user), true
}

type identityKey struct{}

// RequireAuth redirects to /login without a session. Otherwise the identity
// and the gateway token are placed on the request context.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.Identity(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		ctx = gateway.WithToken(ctx, id.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin sends non-admins back to the dashboard. It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromContext(r.Context()); !ok || !id.Admin {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
