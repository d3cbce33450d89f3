// Package auth issues and verifies the bearer tokens of the HTTP API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Spok95/factory-mix/internal/domain/users"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrBadCredentials = errors.New("unknown user id or name")
)

type Claims struct {
	ID     int64      `json:"id"`
	UserID string     `json:"user_id"`
	Name   string     `json:"name"`
	Role   users.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() users.Actor { return users.Actor{ID: c.ID, Role: c.Role} }

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(u users.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := &Claims{
		ID:     u.ID,
		UserID: u.UserID,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.UserID,
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	return s, exp, err
}

func (i *Issuer) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByLogin(ctx context.Context, userID, name string) (*users.User, error)
}

// Login checks the user id and name pair and returns a signed token for that user.
func (i *Issuer) Login(ctx context.Context, lookup UserLookup, userID, name string) (*users.User, string, time.Time, error) {
	userID, name = strings.TrimSpace(userID), strings.TrimSpace(name)
	if userID == "" || name == "" {
		return nil, "", time.Time{}, ErrBadCredentials
	}
	u, err := lookup.GetByLogin(ctx, userID, name)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("login: %w", err)
	}
	if u == nil {
		return nil, "", time.Time{}, ErrBadCredentials
	}
	token, exp, err := i.Issue(*u)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return u, token, exp, nil
}

type ctxKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}
