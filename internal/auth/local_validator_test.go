package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "orderflow/internal/errors"
)

var testSecret = []byte("test-secret-with-enough-bytes-000")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestLocalValidator_AcceptsSignedToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	p, err := NewLocalValidator(testSecret).Validate(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "alice", p.Subject)
	assert.True(t, exp.Equal(p.ExpiresAt))
}

func TestLocalValidator_Rejects(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, []byte("other-secret"), jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future})
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
					Subject:   "alice",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				})
			},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "alice"})
			},
		},
		{
			name: "no subject",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{ExpiresAt: future})
			},
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				return signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future})
			},
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not-a-jwt" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLocalValidator(testSecret).Validate(context.Background(), tt.token(t))

			assert.Nil(t, p)
			_, ok := apperrors.IsUnauthenticatedError(err)
			assert.True(t, ok, "got %v", err)
		})
	}
}
