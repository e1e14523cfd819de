package invoiceapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"whitelist-vpn-miniapp/internal/infra/clock"
)

// ===== Session/JWT primitives =====

var ErrMissingToken = errors.New("missing token")

type AuthManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewAuthManager(secret string, ttl time.Duration, clk clock.Clock) *AuthManager {
	if clk == nil {
		clk = clock.System{}
	}
	return &AuthManager{secret: []byte(secret), ttl: ttl, clock: clk}
}

// SessionClaims identify a Telegram user; Subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Mint issues a session token for userID.
func (a *AuthManager) Mint(userID int64) (string, time.Time, error) {
	now := a.clock.Now()
	exp := now.Add(a.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	// Authorization: Bearer <jwt>
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, ErrMissingToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, errors.New("invalid subject")
	}
	return claims, nil
}

type ctxKey struct{}

func withSubject(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// subjectFrom returns the authenticated user id, if any.
func subjectFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
