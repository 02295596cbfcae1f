package auth

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/breaker"
	apperrors "orderflow/internal/errors"
	"orderflow/internal/identity"
	"orderflow/internal/remote"
)

const authServiceName = "auth-service"

type validateTokenRequest struct {
	Token string `json:"token"`
}

// RemoteValidator asks the auth service whether a token is valid. Accepted
// tokens are cached when a cache is configured.
type RemoteValidator struct {
	remote   *remote.Client
	breakers *breaker.Registry
	url      string
	cache    *VerdictCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRemoteValidator builds a validator. cache may be nil.
func NewRemoteValidator(rc *remote.Client, breakers *breaker.Registry, url string, cache *VerdictCache, cacheTTL time.Duration, logger *zap.Logger) *RemoteValidator {
	breakers.Register(breaker.OpValidateToken)
	return &RemoteValidator{
		remote:   rc,
		breakers: breakers,
		url:      url,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (v *RemoteValidator) Validate(ctx context.Context, token string) (*Principal, error) {
	if v.cache != nil {
		if p, ok := v.cache.Lookup(ctx, token); ok {
			v.logger.Debug("token verdict served from cache")
			return p, nil
		}
	}

	// The auth service must not receive the caller's own credential as
	// authorization for the check.
	ctx = identity.Clear(ctx)

	_, err := breaker.Execute(ctx, v.breakers, breaker.OpValidateToken,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, v.remote.Do(ctx, http.MethodPost, v.url, validateTokenRequest{Token: token}, nil)
		},
		func(ctx context.Context, err error) (struct{}, error) {
			v.logger.Error("validate token fallback", zap.Error(err))
			return struct{}{}, apperrors.NewDownstreamUnavailableError(authServiceName, err)
		},
	)
	if err != nil {
		if rr, ok := apperrors.IsRemoteRejectedError(err); ok {
			v.logger.Debug("auth service rejected token", zap.Int("status", rr.Status))
			return nil, apperrors.NewUnauthenticatedError("invalid token")
		}
		return nil, err
	}

	p := unverifiedPrincipal(token)
	if v.cache != nil {
		v.cache.Store(ctx, token, p, v.cacheTTL)
	}
	return p, nil
}
