package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// TokenVerifier verifies a raw bearer token and returns the principal ID it
// was issued to. This mirrors the TokenService access path from the authkit
// package without creating an import cycle.
type TokenVerifier interface {
	VerifyAccess(tokenString string) (string, error)
}

// RoleDirectory resolves a principal ID to its current role. Role changes
// take effect on the next request because the lookup happens here, per
// request, not at token issuance. Implementations report a principal that no
// longer exists with ErrPrincipalGone; any other error is an infrastructure
// failure.
type RoleDirectory interface {
	FindRole(ctx context.Context, principalID string) (string, error)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	ContextKey     string
	TokenLookup    string
	AuthScheme     string

	// Verifier is required for token verification
	Verifier TokenVerifier

	// ContextEnricher is an optional function to propagate the principal ID to
	// the standard Go context. If provided, it is called after verification.
	ContextEnricher func(c context.Context, principalID string) context.Context
}

// New builds the bearer authentication middleware. It extracts the raw token,
// verifies it, and stores the principal ID under ContextKey for downstream
// handlers.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			principalID, err := cfg.Verifier.VerifyAccess(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, principalID)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, principalID))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// RoleConfig configures the role gate that runs behind New.
type RoleConfig struct {
	ContextKey   string
	Roles        []string
	Directory    RoleDirectory
	ErrorHandler router.ErrorHandler

	// NotFoundHandler runs when the principal behind a valid token no longer
	// exists in the directory.
	NotFoundHandler router.ErrorHandler
}

var (
	ErrPrincipalGone    = errors.New("principal no longer exists")
	ErrRoleNotPermitted = errors.New("role not permitted for this route")
)

// RequireRoles builds middleware that admits only principals whose current
// directory role is in the allowed set. It must be mounted after New.
func RequireRoles(cfg RoleConfig) router.MiddlewareFunc {
	if cfg.Directory == nil {
		panic("AUTH: role middleware configuration: Directory is required.")
	}
	if len(cfg.Roles) == 0 {
		panic("AUTH: role middleware configuration: at least one role is required.")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "principal"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrRoleNotPermitted) || errors.Is(err, ErrJWTMissingOrMalformed) {
				return c.Status(router.StatusForbidden).SendString(err.Error())
			}
			return c.Status(router.StatusInternalServerError).SendString("role lookup failed")
		}
	}
	if cfg.NotFoundHandler == nil {
		cfg.NotFoundHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusNotFound).SendString(err.Error())
		}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			raw := ctx.Locals(cfg.ContextKey)
			principalID, ok := raw.(string)
			if !ok || principalID == "" {
				return cfg.ErrorHandler(ctx, ErrJWTMissingOrMalformed)
			}

			role, err := cfg.Directory.FindRole(ctx.Context(), principalID)
			if err != nil {
				// Only a principal that vanished renders as not found. A
				// directory outage is a server fault, not a client one.
				if errors.Is(err, ErrPrincipalGone) {
					return cfg.NotFoundHandler(ctx, ErrPrincipalGone)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			for _, allowed := range cfg.Roles {
				if role == allowed {
					return ctx.Next()
				}
			}

			return cfg.ErrorHandler(ctx, ErrRoleNotPermitted)
		}
	}
}

func ExtractRawTokenFromContext(ctx router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if err.Error() == ErrJWTMissingOrMalformed.Error() {
				return c.Status(router.StatusBadRequest).SendString(ErrJWTMissingOrMalformed.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.Verifier == nil {
		panic("AUTH: JWT middleware configuration: Verifier is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "principal"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		//header:Authorization
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			return "", ErrJWTMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
