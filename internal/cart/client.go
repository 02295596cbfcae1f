package cart

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"orderflow/internal/breaker"
	"orderflow/internal/domain"
	apperrors "orderflow/internal/errors"
	"orderflow/internal/remote"
)

const serviceName = "cart-service"

// Client talks to the cart service. Every call goes through its own named
// breaker and carries the caller's bearer token.
type Client struct {
	remote   *remote.Client
	breakers *breaker.Registry
	baseURL  string
	logger   *zap.Logger
}

func NewClient(rc *remote.Client, breakers *breaker.Registry, baseURL string, logger *zap.Logger) *Client {
	breakers.Register(breaker.OpFetchCart, breaker.OpClearCart)
	return &Client{
		remote:   rc,
		breakers: breakers,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// FetchActive returns the user's active cart, or nil when the cart service
// reports that the user has none.
func (c *Client) FetchActive(ctx context.Context, userID int64) (*domain.Cart, error) {
	url := fmt.Sprintf("%s/%d", c.baseURL, userID)

	cart, err := breaker.Execute(ctx, c.breakers, breaker.OpFetchCart,
		func(ctx context.Context) (*domain.Cart, error) {
			resp, err := remote.Invoke[cartResponse](ctx, c.remote, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			return resp.toDomain(), nil
		},
		func(ctx context.Context, err error) (*domain.Cart, error) {
			c.logger.Error("fetch cart fallback", zap.Int64("userId", userID), zap.Error(err))
			return nil, apperrors.NewDownstreamUnavailableError(serviceName, err)
		},
	)
	if err != nil {
		if rr, ok := apperrors.IsRemoteRejectedError(err); ok && rr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	return cart, nil
}

// Clear empties the given cart.
func (c *Client) Clear(ctx context.Context, cartID int64) error {
	url := fmt.Sprintf("%s/%d", c.baseURL, cartID)

	_, err := breaker.Execute(ctx, c.breakers, breaker.OpClearCart,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.Do(ctx, http.MethodDelete, url, nil, nil)
		},
		func(ctx context.Context, err error) (struct{}, error) {
			return struct{}{}, apperrors.NewDownstreamUnavailableError(serviceName, err)
		},
	)
	return err
}
