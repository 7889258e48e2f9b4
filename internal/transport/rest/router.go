package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hotel-billing/internal/auth"
	"github.com/frahmantamala/hotel-billing/internal/payment"
	"github.com/frahmantamala/hotel-billing/internal/transport/middleware"
	"github.com/frahmantamala/hotel-billing/internal/transport/swagger"
	"github.com/frahmantamala/hotel-billing/internal/user"
	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Payment *payment.Handler
	Webhook *payment.WebhookHandler
	RBAC    *auth.RBACAuthorization
}

type RouterConfig struct {
	AllowedOrigins string
	OpenAPIPath    string
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, rdb redis.UniversalClient, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, rdb)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	if cfg.OpenAPIPath != "" {
		router.Get(swagger.SpecURL, func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, cfg.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Webhook != nil {
			r.Post("/payments/callback", h.Webhook.HandlePaymentCallback)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Payment == nil {
				return
			}

			pr.Group(func(mr chi.Router) {
				mr.Use(h.RBAC.RequireManagePayments())
				mr.Post("/payments", h.Payment.CreatePayment)
				mr.Get("/payments/overdue", h.Payment.GetOverduePayments)
				mr.Post("/payments/overdue/notify", h.Payment.NotifyOverduePayments)
				mr.Get("/payments/{id}", h.Payment.GetPayment)
				mr.Patch("/payments/{id}", h.Payment.UpdatePayment)
				mr.Patch("/payments/{id}/state", h.Payment.UpdatePaymentState)
				mr.Get("/reservations/{id}/payments", h.Payment.GetReservationPayments)
			})

			pr.Group(func(rr chi.Router) {
				rr.Use(h.RBAC.RequireRefundPayments())
				rr.Post("/payments/{id}/refund", h.Payment.RefundPayment)
				rr.Get("/payments/{id}/audit", h.Payment.GetPaymentAudit)
			})

			pr.Group(func(vr chi.Router) {
				vr.Use(h.RBAC.RequireViewReports())
				vr.Get("/reports/financial", h.Payment.GetFinancialReport)
			})
		})
	})
}
