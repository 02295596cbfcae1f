package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"orderflow/internal/dto"
	apperrors "orderflow/internal/errors"
	"orderflow/internal/identity"
	"orderflow/internal/metrics"
)

// Filter rejects requests without a valid bearer token before they reach a
// handler, and stores the token and subject in the request context for the
// handlers and outbound clients downstream.
type Filter struct {
	validator Validator
	name      string
	logger    *zap.Logger
}

// NewFilter wraps validator. name labels the validation metrics.
func NewFilter(validator Validator, name string, logger *zap.Logger) *Filter {
	return &Filter{
		validator: validator,
		name:      name,
		logger:    logger,
	}
}

func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := middleware.GetReqID(r.Context())

		token, ok := bearerToken(r)
		if !ok {
			metrics.TokenValidations.WithLabelValues(f.name, "missing").Inc()
			f.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			return
		}

		principal, err := f.validator.Validate(r.Context(), token)
		if err != nil {
			if _, ok := apperrors.IsUnauthenticatedError(err); ok {
				metrics.TokenValidations.WithLabelValues(f.name, "invalid").Inc()
				f.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
				return
			}
			metrics.TokenValidations.WithLabelValues(f.name, "unavailable").Inc()
			f.logger.Warn("token validation unavailable", zap.String("traceId", traceID), zap.Error(err))
			f.writeError(w, traceID, http.StatusServiceUnavailable, "DOWNSTREAM_UNAVAILABLE", "token validation unavailable")
			return
		}

		metrics.TokenValidations.WithLabelValues(f.name, "valid").Inc()

		ctx := identity.WithToken(r.Context(), token)
		if principal != nil && principal.Subject != "" {
			ctx = identity.WithSubject(ctx, principal.Subject)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

func (f *Filter) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		f.logger.Error("failed to encode response", zap.Error(err))
	}
}
