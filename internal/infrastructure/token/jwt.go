// Package token implements ports.TokenSigner with HS256 JSON Web Tokens.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// Claims is the token payload: the subject is the user id, email the lookup key.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTSigner signs and verifies tokens with a shared secret.
type JWTSigner struct {
	secret        []byte
	ttl           time.Duration
	enforceExpiry bool
	now           func() time.Time
}

// NewJWTSigner returns a signer. When enforceExpiry is false, tokens stay valid after
// their exp claim, which keeps tokens minted by older deployments working.
func NewJWTSigner(secret string, ttl time.Duration, enforceExpiry bool) *JWTSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTSigner{secret: []byte(secret), ttl: ttl, enforceExpiry: enforceExpiry, now: time.Now}
}

func (s *JWTSigner) Sign(c ports.TokenClaims) (string, error) {
	now := s.now()
	claims := Claims{
		Email: c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *JWTSigner) Verify(token string) (ports.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if !s.enforceExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return ports.TokenClaims{}, errors.Join(domain.ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}

	var userID int64
	if claims.Subject != "" {
		userID, err = strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return ports.TokenClaims{}, domain.ErrInvalidToken
		}
	}
	return ports.TokenClaims{Email: claims.Email, UserID: userID}, nil
}
