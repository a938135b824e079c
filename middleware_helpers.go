package authkit

import (
	"context"

	"github.com/goliatone/go-authkit/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// accessVerifier adapts a TokenService to the jwtware verifier contract,
// pinning the token kind to access so refresh tokens are rejected at the door.
type accessVerifier struct {
	tokens TokenService
}

func (v accessVerifier) VerifyAccess(tokenString string) (string, error) {
	return v.tokens.Verify(tokenString, TokenKindAccess)
}

// NewAccessVerifier wraps a TokenService for use by the bearer middleware.
func NewAccessVerifier(tokens TokenService) jwtware.TokenVerifier {
	return accessVerifier{tokens: tokens}
}

// roleDirectory adapts a PrincipalDirectory to the jwtware role lookup.
type roleDirectory struct {
	directory PrincipalDirectory
}

func (d roleDirectory) FindRole(ctx context.Context, principalID string) (string, error) {
	principal, err := d.directory.FindByID(ctx, principalID)
	if err != nil {
		var rich *errors.Error
		if errors.As(err, &rich) && rich.Category == errors.CategoryNotFound {
			return "", jwtware.ErrPrincipalGone
		}
		return "", err
	}
	return string(principal.Role), nil
}

// NewRoleDirectory wraps a PrincipalDirectory for use by RequireRoles.
func NewRoleDirectory(directory PrincipalDirectory) jwtware.RoleDirectory {
	return roleDirectory{directory: directory}
}

// ContextEnricherAdapter stores the authenticated principal ID in the
// standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, principalID string) context.Context {
	return WithPrincipalID(c, principalID)
}

// RequireRoles builds the role gate with rich JSON errors. Role checks read
// the directory on every request, so demotions and deletions bite immediately.
func RequireRoles(a *RouteAuthenticator, directory PrincipalDirectory, contextKey string, roles ...Role) router.MiddlewareFunc {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}

	return jwtware.RequireRoles(jwtware.RoleConfig{
		ContextKey: contextKey,
		Roles:      names,
		Directory:  NewRoleDirectory(directory),
		ErrorHandler: func(c router.Context, err error) error {
			switch {
			case errors.Is(err, jwtware.ErrRoleNotPermitted):
				return a.ErrorHandler(c, ErrInsufficientRole)
			case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
				return a.ErrorHandler(c, ErrTokenMissing)
			default:
				// Directory failures surface as server errors, never as a
				// role or existence verdict.
				return a.ErrorHandler(c, errors.Wrap(err, errors.CategoryInternal, "role lookup failed").
					WithCode(errors.CodeInternal))
			}
		},
		NotFoundHandler: func(c router.Context, err error) error {
			return a.ErrorHandler(c, ErrPrincipalNotFound)
		},
	})
}
