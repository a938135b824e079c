package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates access and refresh credentials. The kind is both
// encoded in the payload and bound to a kind-specific signing secret, so a
// leaked access token cannot be replayed as a refresh token.
type TokenKind string

const (
	// TokenKindAccess is the short-lived stateless credential
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long-lived store-tracked credential
	TokenKindRefresh TokenKind = "refresh"
)

// IsValid checks the kind against the closed enumeration
func (k TokenKind) IsValid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// TokenClaims is the signed payload carried by both token kinds
type TokenClaims struct {
	jwt.RegisteredClaims
	UID  string    `json:"uid,omitempty"`
	Kind TokenKind `json:"kind,omitempty"`
}

// PrincipalID returns the principal identifier, falling back to the subject
func (c *TokenClaims) PrincipalID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// TokenKind returns the kind claim
func (c *TokenClaims) TokenKind() TokenKind {
	return c.Kind
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAtTime returns the issued at time
func (c *TokenClaims) IssuedAtTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
