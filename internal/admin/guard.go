package admin

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	// DefaultPassword applies until an admin sets one.
	DefaultPassword = "1111"
	MinPasswordLen  = 4

	TokenHeader = "X-Admin-Token"

	tokenSubject = "admin"

	DefaultSessionTTL = 8 * time.Hour
)

var (
	ErrInvalidPassword         = errors.New("invalid admin password")
	ErrPasswordTooShort        = errors.New("password must be at least 4 characters")
	ErrPasswordConfirmMismatch = errors.New("password confirmation does not match")
	ErrInvalidToken            = errors.New("admin session invalid or expired")
)

type storedPassword struct {
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Guard checks the admin password and tracks admin sessions. Tokens are
// HS256 JWTs signed with a per-process key; the session map lets logout and
// password changes revoke them before they expire.
type Guard struct {
	mu       sync.Mutex
	kv       storage.KV
	clock    clock.Clock
	ttl      time.Duration
	logger   platform.Logger
	key      []byte
	sessions map[string]time.Time
}

func NewGuard(kv storage.KV, clk clock.Clock, ttl time.Duration, logger platform.Logger) *Guard {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return &Guard{
		kv:       kv,
		clock:    clk,
		ttl:      ttl,
		logger:   logger,
		key:      key,
		sessions: map[string]time.Time{},
	}
}

// Login checks password and opens a session.
func (g *Guard) Login(ctx context.Context, password string) (string, error) {
	if err := g.verify(ctx, password); err != nil {
		g.logger.Info("admin login rejected")
		return "", err
	}

	now := g.clock.Now()
	id := uuid.NewString()
	exp := now.Add(g.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("cannot sign admin token: %w", err)
	}

	g.mu.Lock()
	for sid, until := range g.sessions {
		if !now.Before(until) {
			delete(g.sessions, sid)
		}
	}
	g.sessions[id] = exp
	g.mu.Unlock()

	g.logger.Info("admin login")
	return token, nil
}

func (g *Guard) Logout(token string) {
	id := g.sessionID(token)
	if id == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, id)
}

// Valid reports whether token is a well-signed, unexpired token for a live
// session. Expired sessions are dropped.
func (g *Guard) Valid(token string) bool {
	id := g.sessionID(token)
	if id == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.sessions[id]
	if !ok {
		return false
	}
	if !g.clock.Now().Before(exp) {
		delete(g.sessions, id)
		return false
	}
	return true
}

// sessionID returns the token's session id, or "" when the token does not
// verify.
func (g *Guard) sessionID(token string) string {
	if token == "" {
		return ""
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return g.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(tokenSubject),
		jwt.WithTimeFunc(g.clock.Now),
	)
	if err != nil {
		return ""
	}
	return claims.ID
}

// ChangePassword replaces the password and ends every open session.
func (g *Guard) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if err := g.verify(ctx, current); err != nil {
		return err
	}
	if len(next) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if next != confirm {
		return ErrPasswordConfirmMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("cannot hash password: %w", err)
	}
	if err := storage.PutJSON(ctx, g.kv, storage.AdminPasswordKey, storedPassword{Hash: string(hash), UpdatedAt: g.clock.Now()}); err != nil {
		return fmt.Errorf("cannot store password: %w", err)
	}

	g.mu.Lock()
	g.sessions = map[string]time.Time{}
	g.mu.Unlock()

	g.logger.Info("admin password changed")
	return nil
}

func (g *Guard) verify(ctx context.Context, password string) error {
	var stored storedPassword
	err := storage.GetJSON(ctx, g.kv, storage.AdminPasswordKey, &stored)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if password != DefaultPassword {
			return ErrInvalidPassword
		}
		return nil
	case err != nil:
		return fmt.Errorf("cannot read password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Attach marks requests carrying a live admin token as admin. Other requests
// pass through unchanged.
func (g *Guard) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Valid(r.Header.Get(TokenHeader)) {
			r = r.WithContext(WithAdmin(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without a live admin token.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Valid(r.Header.Get(TokenHeader)) {
			platform.RespondError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context())))
	})
}
