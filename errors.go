package authkit

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

const (
	TextCodePrincipalNotFound = "PRINCIPAL_NOT_FOUND"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeAdminNotAllowed   = "ADMIN_NOT_WHITELISTED"
	TextCodeRoleNotAllowed    = "INSUFFICIENT_ROLE"
	TextCodeInvalidRole       = "INVALID_ROLE"
	TextCodeTokenMissing      = "TOKEN_MISSING"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeRefreshRequired   = "REFRESH_TOKEN_REQUIRED"
	TextCodeRefreshExpired    = "REFRESH_TOKEN_EXPIRED"
	TextCodeRefreshInvalid    = "REFRESH_TOKEN_INVALID"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrPrincipalNotFound is returned when no principal matches the identifier.
var ErrPrincipalNotFound = errors.New("principal not found", errors.CategoryNotFound).
	WithTextCode(TextCodePrincipalNotFound).
	WithCode(errors.CodeNotFound)

// ErrDuplicateEmail is returned when a registration collides with an
// existing principal's email.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrMismatchedHashAndPassword is the generic credential failure. It never
// reveals whether the email or the password was wrong.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAdminNotWhitelisted is returned when a registration requests the admin
// role with an email outside the configured whitelist.
var ErrAdminNotWhitelisted = errors.New("you cannot register as an admin", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminNotAllowed).
	WithCode(errors.CodeForbidden)

// ErrInsufficientRole is returned when an authenticated principal's current
// role is not in the allowed set for a route.
var ErrInsufficientRole = errors.New("access denied, insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeRoleNotAllowed).
	WithCode(errors.CodeForbidden)

// ErrInvalidRole is returned for roles outside the closed enumeration.
var ErrInvalidRole = errors.New("unknown or invalid role", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

// ErrTokenMissing is returned when a protected request carries no bearer token.
var ErrTokenMissing = errors.New("access denied, no token provided", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid tokens past their expiry.
// For access tokens the client should use the refresh flow rather than
// re-authenticate from scratch.
var ErrTokenExpired = errors.New("token is expired, request a new one with your refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers signature mismatch and structural corruption.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenRequired is returned when the refresh flow is called with an
// empty token value.
var ErrRefreshTokenRequired = errors.New("refresh token is required", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshRequired).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenExpired is returned when a tracked refresh token is past its
// TTL. The session record is removed as a side effect.
var ErrRefreshTokenExpired = errors.New("refresh token expired, please login again", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshExpired).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRefreshToken covers revoked, never-issued, and malformed refresh
// tokens with one indistinguishable failure so a client cannot enumerate
// which case it hit.
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUnprocessableBody is returned when a request body cannot be decoded.
var ErrUnprocessableBody = errors.New("failed to parse request body", errors.CategoryBadInput).
	WithTextCode("UNPROCESSABLE_BODY").
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// formatValidationError lifts field level validation failures into a rich
// error with the offending fields in metadata.
func formatValidationError(err error) *errors.Error {
	rich := errors.Wrap(err, errors.CategoryValidation, "payload validation failed").
		WithCode(errors.CodeBadRequest)

	var fields validation.Errors
	if errors.As(err, &fields) {
		meta := map[string]any{}
		for name, ferr := range fields {
			meta[name] = ferr.Error()
		}
		rich = rich.WithMetadata(meta)
	}

	return rich
}

// IsAuthenticationError reports whether err belongs to the authentication
// failure class: bad credentials plus missing, expired, malformed, or
// revoked tokens.
func IsAuthenticationError(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == errors.CategoryAuth
	}
	return false
}
