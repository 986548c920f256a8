package ports

// TokenClaims is the identity bound into a bearer token.
type TokenClaims struct {
	Email  string
	UserID int64
}

// TokenSigner issues and verifies bearer tokens.
type TokenSigner interface {
	Sign(claims TokenClaims) (string, error)
	// Verify returns domain.ErrInvalidToken for malformed, unsigned, foreign or
	// (when enforced) expired tokens.
	Verify(token string) (TokenClaims, error)
}
