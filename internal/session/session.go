// Package session tracks who is logged in.
//
// A session begins when a user logs in and ends when they log out or its
// token expires. Tokens are HS256 JWTs whose jti is the session id, and a
// token is only honoured while its session is still present in the Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid token")
)

// Session is the server-side record of one login.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists live sessions. Implementations must drop sessions once
// ExpiresAt has passed.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Identity is what a session is started for.
type Identity struct {
	UserID   int
	Username string
	Email    string
}

type claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Start records a new session for id and returns its signed token.
func (m *Manager) Start(ctx context.Context, id Identity) (string, Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:   s.UserID,
		Username: s.Username,
		Email:    s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   fmt.Sprint(s.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}

	if err := m.store.Save(ctx, s); err != nil {
		return "", Session{}, fmt.Errorf("save session: %w", err)
	}

	return signed, s, nil
}

// Verify parses token and returns its session if it is still live.
func (m *Manager) Verify(ctx context.Context, token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" {
		return Session{}, fmt.Errorf("%w: missing session id", ErrInvalidToken)
	}

	s, err := m.store.Get(ctx, c.ID)
	if err != nil {
		return Session{}, err
	}
	if s.UserID != c.UserID {
		return Session{}, fmt.Errorf("%w: session user mismatch", ErrInvalidToken)
	}
	return s, nil
}

// End tears down a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	err := m.store.Delete(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}
