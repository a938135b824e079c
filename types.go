package authkit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger takes a message plus trailing key-value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Principal is the directory's public view of an account. PasswordHash is
// populated only by FindByEmail, the credentials lookup used during login.
type Principal struct {
	ID           string
	Username     string
	Email        string
	Role         Role
	PasswordHash string
}

// PrincipalDirectory resolves principals to their current role and existence.
// It is owned by the user-management subsystem; the auth core only reads it.
type PrincipalDirectory interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// AccountRegistrar creates new principals. The directory's email uniqueness
// constraint surfaces as ErrDuplicateEmail.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, account *Principal) (*Principal, error)
}

// TokenService signs and verifies credentials for both token kinds.
type TokenService interface {
	IssueAccess(principalID string) (string, error)
	IssueRefresh(principalID string) (string, error)
	Verify(tokenString string, kind TokenKind) (string, error)
}

// SessionStore is the durable record of outstanding refresh tokens, keyed by
// token value. Refresh tokens are immutable once issued, so there is no
// update operation. Delete operations are idempotent.
type SessionStore interface {
	Put(ctx context.Context, tokenValue, principalID string) error
	Exists(ctx context.Context, tokenValue string) (bool, error)
	DeleteByValue(ctx context.Context, tokenValue string) error
	DeleteAllByPrincipal(ctx context.Context, principalID string) error
}

// Authenticator holds the session state machine operations
type Authenticator interface {
	Register(ctx context.Context, email, password string, role Role) (*IssuedCredentials, error)
	Login(ctx context.Context, email, password string) (*IssuedCredentials, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	Logout(ctx context.Context, refreshToken, principalID string) error
	RevokeAllSessions(ctx context.Context, principalID string) error
}

// Config holds auth options
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetAdminWhitelist() []string
	GetEnvironment() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetContextKey() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { fmt.Println("[ERR] AUTH " + msg + logAttrs(args)) }
func (d defLogger) Warn(msg string, args ...any)  { fmt.Println("[WRN] AUTH " + msg + logAttrs(args)) }
func (d defLogger) Info(msg string, args ...any)  { fmt.Println("[INF] AUTH " + msg + logAttrs(args)) }
func (d defLogger) Debug(msg string, args ...any) { fmt.Println("[DBG] AUTH " + msg + logAttrs(args)) }

// logAttrs renders trailing key-value pairs as " key=value". A dangling key
// renders with an empty value.
func logAttrs(args []any) string {
	if len(args) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		b.WriteString(" ")
		b.WriteString(fmt.Sprint(args[i]))
		b.WriteString("=")
		if i+1 < len(args) {
			b.WriteString(fmt.Sprint(args[i+1]))
		}
	}

	return b.String()
}
