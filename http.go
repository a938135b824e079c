package authkit

import (
	"time"

	"github.com/goliatone/go-authkit/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RefreshCookieName is the cookie slot the refresh token travels in. Clients
// never see the value from script: the cookie is HTTP-only.
const RefreshCookieName = "refreshToken"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RouteAuthenticator adapts the Authenticator to the HTTP edge: it moves the
// refresh token in and out of its cookie and renders rich errors as JSON.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute builds the bearer middleware for routes that require an
// authenticated principal.
func (a *RouteAuthenticator) ProtectedRoute(verifier jwtware.TokenVerifier, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		Verifier:     verifier,
		AuthScheme:   a.cfg.GetAuthScheme(),
		ContextKey:   a.cfg.GetContextKey(),
		TokenLookup:  a.cfg.GetTokenLookup(),
	})
}

// SetRefreshCookie attaches the refresh token to the response. SameSite is
// Strict so the cookie only rides first-party navigation; Secure is dropped
// outside production to keep local HTTP development working.
func (a *RouteAuthenticator) SetRefreshCookie(c router.Context, refreshToken string) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Expires:  time.Now().Add(a.cfg.GetRefreshTokenTTL()),
		HTTPOnly: true,
		Secure:   IsProduction(a.cfg),
		SameSite: "Strict",
	})
}

// ClearRefreshCookie expires the refresh cookie on the client.
func (a *RouteAuthenticator) ClearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   IsProduction(a.cfg),
		SameSite: "Strict",
	})
}

// RefreshTokenFromRequest reads the refresh token cookie, empty if absent.
func (a *RouteAuthenticator) RefreshTokenFromRequest(c router.Context) string {
	return c.Cookies(RefreshCookieName)
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
			// Extraction failed before verification, the request carried no
			// usable bearer token at all.
			richErr = ErrTokenMissing
		} else if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	body := errorBody{
		Code:    clientErrorCode(richErr.Category),
		Message: richErr.Message,
	}

	// Internal details stay out of production responses.
	if status >= router.StatusInternalServerError && IsProduction(a.cfg) {
		body.Message = "An unexpected server error occurred"
	}

	return c.JSON(status, body)
}

// clientErrorCode maps error categories to the codes API clients branch on.
func clientErrorCode(category errors.Category) string {
	switch category {
	case errors.CategoryNotFound:
		return "NotFound"
	case errors.CategoryConflict:
		return "ConflictError"
	case errors.CategoryAuth:
		return "AuthenticationError"
	case errors.CategoryAuthz:
		return "AuthorizationError"
	case errors.CategoryValidation, errors.CategoryBadInput:
		return "ValidationError"
	case errors.CategoryRateLimit:
		return "RateLimitError"
	default:
		return "ServerError"
	}
}
