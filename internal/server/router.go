package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"orderflow/internal/breaker"
	"orderflow/internal/metrics"
	"orderflow/internal/order/controller"
)

// NewRouter mounts the order API behind authMiddleware. The operational
// endpoints stay open.
func NewRouter(ordersCtrl *controller.OrdersController, authMiddleware func(http.Handler) http.Handler, breakers *breaker.Registry, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, map[string]string{"status": "UP"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/breakers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, breakers.Snapshot())
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Route("/orders", ordersCtrl.Routes)
	})

	return r
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
