package authkit

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AuthResponse is the JSON-able body returned on login and registration
type AuthResponse struct {
	User        PublicUser `json:"user"`
	AccessToken string     `json:"accessToken"`
}

// RefreshResponse is the JSON-able body returned by the refresh flow
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// IssuedCredentials bundles the response body with the refresh token. The
// refresh token is kept out of the body so the transport layer can place it
// as an HTTP-only cookie instead.
type IssuedCredentials struct {
	Response     AuthResponse
	RefreshToken string
}

// Auther drives the session state machine: Anonymous -> Authenticated ->
// Anonymous (revoked). It owns the write path to session records; the signer
// it delegates to holds no state at all.
type Auther struct {
	directory PrincipalDirectory
	registry  AccountRegistrar
	sessions  SessionStore
	tokens    TokenService
	whitelist AdminWhitelist
	logger    Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(directory PrincipalDirectory, registry AccountRegistrar, sessions SessionStore, cfg Config) *Auther {
	return &Auther{
		directory: directory,
		registry:  registry,
		sessions:  sessions,
		tokens:    NewTokenService(cfg, defLogger{}),
		whitelist: AdminWhitelist(cfg.GetAdminWhitelist()),
		logger:    defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	s.tokens = tokens
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

var _ Authenticator = (*Auther)(nil)

// Register creates a principal and opens its first session. Admin
// registration is gated by the configured email whitelist.
func (s *Auther) Register(ctx context.Context, email, password string, role Role) (*IssuedCredentials, error) {
	if role == "" {
		role = RoleUser
	}

	if !IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	if role == RoleAdmin && !s.whitelist.Allows(email) {
		s.logger.Warn("registration as admin rejected, email not in whitelist", "email", email)
		return nil, ErrAdminNotWhitelisted
	}

	hash, err := HashPassword(password)
	if err != nil {
		var rich *errors.Error
		if errors.As(err, &rich) {
			return nil, rich
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	principal, err := s.registry.RegisterAccount(ctx, &Principal{
		Username:     generateUsername(),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		s.logger.Error("Register create principal error", "email", email, "error", err)
		return nil, err
	}

	creds, err := s.issue(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.logger.Info("principal registered",
		"principal_id", principal.ID,
		"username", principal.Username,
		"role", principal.Role,
	)

	return creds, nil
}

// Login verifies the credentials and opens an additional session. There is
// no limit on concurrent sessions per principal.
func (s *Auther) Login(ctx context.Context, email, password string) (*IssuedCredentials, error) {
	principal, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Login find principal error", "error", err)
		return nil, err
	}

	if err := ComparePasswordAndHash(password, principal.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	creds, err := s.issue(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.logger.Info("principal logged in", "principal_id", principal.ID)

	return creds, nil
}

// RefreshAccessToken exchanges a live refresh token for a new access token.
// The refresh token itself is never reissued by this path; it stays valid for
// its full lifetime or until explicit logout.
func (s *Auther) RefreshAccessToken(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	// Store membership is checked before signature verification so a revoked
	// token is indistinguishable from a malformed one.
	exists, err := s.sessions.Exists(ctx, refreshToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check session record")
	}
	if !exists {
		return nil, ErrInvalidRefreshToken
	}

	principalID, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		if IsTokenExpiredError(err) {
			// Lazy revocation of the stale session.
			if delErr := s.sessions.DeleteByValue(ctx, refreshToken); delErr != nil {
				s.logger.Error("failed to delete expired session record", "error", delErr)
			}
			return nil, ErrRefreshTokenExpired
		}

		// Malformed-but-stored should not occur; keep the record and fail.
		s.logger.Error("refresh token verification error", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.tokens.IssueAccess(principalID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	return &RefreshResponse{AccessToken: accessToken}, nil
}

// Logout revokes the session record for the refresh token. It is idempotent:
// the caller wants to be logged out, and an already-absent record satisfies
// that either way.
func (s *Auther) Logout(ctx context.Context, refreshToken, principalID string) error {
	if refreshToken != "" {
		if err := s.sessions.DeleteByValue(ctx, refreshToken); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete session record")
		}

		s.logger.Info("refresh token revoked", "principal_id", principalID)
	}

	s.logger.Info("principal logged out", "principal_id", principalID)
	return nil
}

// RevokeAllSessions deletes every outstanding session for the principal.
// Account deletion cascades through here.
func (s *Auther) RevokeAllSessions(ctx context.Context, principalID string) error {
	if err := s.sessions.DeleteAllByPrincipal(ctx, principalID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke principal sessions")
	}

	s.logger.Info("all sessions revoked", "principal_id", principalID)
	return nil
}

func (s *Auther) issue(ctx context.Context, principal *Principal) (*IssuedCredentials, error) {
	accessToken, err := s.tokens.IssueAccess(principal.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refreshToken, err := s.tokens.IssueRefresh(principal.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	// The record is written only after both tokens signed, so an aborted
	// issuance never leaves a half-issued session.
	if err := s.sessions.Put(ctx, refreshToken, principal.ID); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist session record")
	}

	s.logger.Info("refresh token created", "principal_id", principal.ID)

	return &IssuedCredentials{
		Response: AuthResponse{
			User: PublicUser{
				Username: principal.Username,
				Email:    principal.Email,
				Role:     principal.Role,
			},
			AccessToken: accessToken,
		},
		RefreshToken: refreshToken,
	}, nil
}

// generateUsername produces a unique placeholder username; principals can
// rename through the profile path later.
func generateUsername() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return "user-" + suffix
}
