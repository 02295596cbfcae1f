package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "orderflow/internal/errors"
)

// LocalValidator verifies HMAC-signed JWTs with a shared secret. Tokens must
// carry an expiry and a subject.
type LocalValidator struct {
	secret []byte
	parser *jwt.Parser
}

func NewLocalValidator(secret []byte) *LocalValidator {
	return &LocalValidator{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second), // small clock skew
		),
	}
}

func (v *LocalValidator) Validate(_ context.Context, token string) (*Principal, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, apperrors.NewUnauthenticatedError("invalid token")
	}

	if claims.Subject == "" {
		return nil, apperrors.NewUnauthenticatedError("token has no subject")
	}

	return &Principal{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
