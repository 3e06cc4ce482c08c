package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims the service relies on. Only the
// subject matters: any role claim a provider adds is ignored, the role
// always comes from the caller's profile.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenVerifier checks bearer tokens issued by the identity provider.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier for HS256 tokens signed with secret.
// An empty issuer disables the issuer check.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify validates tokenString and returns its claims.
// It checks the signature, algorithm, expiry, issuer and subject.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// IdentityFromHeader turns an Authorization header value into an Identity.
// A missing header yields Anonymous with a nil error; a malformed or
// invalid token yields Anonymous with ErrTokenInvalid.
func (v *TokenVerifier) IdentityFromHeader(header string) (Identity, error) {
	if header == "" {
		return Anonymous, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return Anonymous, fmt.Errorf("%w: expected Bearer scheme", ErrTokenInvalid)
	}
	claims, err := v.Verify(strings.TrimSpace(token))
	if err != nil {
		return Anonymous, err
	}
	return Authenticated(claims.Subject), nil
}
