package authkit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance from auth options
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		logger:     logger,
	}
}

// IssueAccess signs a short-lived stateless access token for the principal
func (ts *TokenServiceImpl) IssueAccess(principalID string) (string, error) {
	return ts.sign(principalID, TokenKindAccess, ts.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the principal. The caller
// is responsible for persisting the matching session record.
func (ts *TokenServiceImpl) IssueRefresh(principalID string) (string, error) {
	return ts.sign(principalID, TokenKindRefresh, ts.refreshTTL)
}

func (ts *TokenServiceImpl) sign(principalID string, kind TokenKind, ttl time.Duration) (string, error) {
	if principalID == "" {
		return "", errors.New("principal id must not be empty", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   principalID,
			Audience:  ts.aud(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:  principalID,
		Kind: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.keyFor(kind))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token string of the given kind, returning the
// principal identifier it asserts. Expiry and structural failures are
// distinguished because callers react differently: an expired refresh token
// triggers session cleanup, a malformed token never does.
func (ts *TokenServiceImpl) Verify(tokenString string, kind TokenKind) (string, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.keyFor(kind), nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(errors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode or validate claims")
		return "", ErrTokenMalformed
	}

	// A kind mismatch with equal secrets would otherwise verify cleanly.
	if claims.Kind != kind {
		return "", ErrTokenMalformed
	}

	return claims.PrincipalID(), nil
}

func (ts *TokenServiceImpl) keyFor(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return ts.refreshKey
	}
	return ts.accessKey
}

func (ts *TokenServiceImpl) aud() jwt.ClaimStrings {
	if len(ts.audience) == 0 {
		return nil
	}
	aud := make(jwt.ClaimStrings, len(ts.audience))
	copy(aud, ts.audience)
	return aud
}
