package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blogpost-api/internal/domain"
)

var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Identity is the authenticated caller derived from a verified token.
type Identity struct {
	UserID   int64
	Username string
}

type claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Name      string `json:"name"`
}

// TokenIssuer signs and verifies HMAC-SHA512 tokens with a shared key.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(key string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("token signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		key: []byte(key),
		ttl: ttl,
		now: time.Now,
	}, nil
}

// CreateToken issues a token carrying the user's id and username.
func (t *TokenIssuer) CreateToken(user *domain.User) (string, error) {
	if user == nil {
		return "", errors.New("user is required")
	}

	now := t.now().UTC()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		SessionID: strconv.FormatInt(user.ID, 10),
		Name:      user.Username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the caller identity.
func (t *TokenIssuer) Verify(token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.key, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	// no subject means no identity
	id, err := strconv.ParseInt(c.SessionID, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: id, Username: c.Name}, nil
}
