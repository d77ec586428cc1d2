package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/topup-ledger/internal/handler"
	"github.com/josh-kwaku/topup-ledger/internal/middleware"
)

type routeDeps struct {
	webhooks       *handler.WebhookHandler
	accounts       *handler.AccountHandler
	health         *handler.HealthHandler
	openAPI        []byte
	jwtSecret      string
	requestTimeout time.Duration
}

func newRouter(d routeDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(chimw.Timeout(d.requestTimeout))

	r.Get("/health", d.health.Liveness)
	r.Get("/health/ready", d.health.Readiness)

	r.Get("/docs", handler.ServeDocs())
	r.Get("/docs/openapi.yaml", handler.ServeSpec(d.openAPI))

	r.Post("/webhooks/payments", d.webhooks.ReceivePaymentNotification)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payments", d.webhooks.ReceivePaymentNotification)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OperatorAuth(d.jwtSecret))
			r.Get("/accounts/{accountID}", d.accounts.Get)
			r.Get("/accounts/{accountID}/transactions", d.accounts.ListTransactions)
		})
	})

	return r
}
