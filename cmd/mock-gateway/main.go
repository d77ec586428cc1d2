package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/logging"
	"github.com/josh-kwaku/topup-ledger/internal/signature"
)

type config struct {
	Port            int    `env:"PORT" envDefault:"8081"`
	AccessToken     string `env:"GATEWAY_ACCESS_TOKEN" envDefault:"mock-token"`
	WebhookSecret   string `env:"WEBHOOK_SECRET"`
	SignatureHeader string `env:"WEBHOOK_SIGNATURE_HEADER" envDefault:"X-Signature"`
	AppEnv          string `env:"APP_ENV" envDefault:"development"`
}

type payment struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail,omitempty"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	ExternalReference string          `json:"external_reference,omitempty"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
	NotifyURL         string          `json:"-"`
}

type createPaymentRequest struct {
	Status            string          `json:"status" validate:"required,oneof=approved pending rejected cancelled in_process"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id" validate:"required,len=3"`
	ExternalReference string          `json:"external_reference"`
	Metadata          map[string]any  `json:"metadata"`
	NotifyURL         string          `json:"notify_url" validate:"omitempty,url"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved pending rejected cancelled in_process"`
}

// gateway is an in-memory stand-in for the payment provider.
type gateway struct {
	cfg      config
	validate *validator.Validate
	client   *http.Client

	mu       sync.Mutex
	nextID   int64
	payments map[string]*payment
}

func newGateway(cfg config) *gateway {
	return &gateway{
		cfg:      cfg,
		validate: validator.New(),
		client:   &http.Client{Timeout: 5 * time.Second},
		nextID:   1000000,
		payments: make(map[string]*payment),
	}
}

func (g *gateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(g.requireToken)
		r.Get("/payments/{id}", g.getPayment)
		r.Post("/payments", g.createPayment)
		r.Post("/payments/{id}/status", g.updateStatus)
		r.Post("/payments/{id}/notify", g.renotify)
	})
	return r
}

func (g *gateway) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != g.cfg.AccessToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid access token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *gateway) getPayment(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	p, ok := g.payments[chi.URLParam(r, "id")]
	var snapshot payment
	if ok {
		snapshot = *p
	}
	g.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "payment not found"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (g *gateway) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	if err := g.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	g.mu.Lock()
	g.nextID++
	p := &payment{
		ID:                strconv.FormatInt(g.nextID, 10),
		Status:            req.Status,
		TransactionAmount: req.TransactionAmount,
		CurrencyID:        strings.ToUpper(req.CurrencyID),
		ExternalReference: req.ExternalReference,
		Metadata:          req.Metadata,
		NotifyURL:         req.NotifyURL,
	}
	g.payments[p.ID] = p
	snapshot := *p
	g.mu.Unlock()

	slog.Info("payment created", "payment_id", p.ID, "status", p.Status, "amount", p.TransactionAmount.StringFixed(2))
	g.notify(r.Context(), snapshot)
	writeJSON(w, http.StatusCreated, snapshot)
}

func (g *gateway) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || g.validate.Struct(req) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid status"})
		return
	}

	g.mu.Lock()
	p, ok := g.payments[chi.URLParam(r, "id")]
	var snapshot payment
	if ok {
		p.Status = req.Status
		snapshot = *p
	}
	g.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "payment not found"})
		return
	}
	g.notify(r.Context(), snapshot)
	writeJSON(w, http.StatusOK, snapshot)
}

func (g *gateway) renotify(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	p, ok := g.payments[chi.URLParam(r, "id")]
	var snapshot payment
	if ok {
		snapshot = *p
	}
	g.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "payment not found"})
		return
	}
	g.notify(r.Context(), snapshot)
	w.WriteHeader(http.StatusAccepted)
}

// notify posts a signed notification. Delivery failures are logged only.
func (g *gateway) notify(ctx context.Context, p payment) {
	if p.NotifyURL == "" {
		return
	}

	body, err := json.Marshal(map[string]any{
		"type":   "payment",
		"action": "payment.updated",
		"data":   map[string]string{"id": p.ID},
	})
	if err != nil {
		slog.Error("marshal notification", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, p.NotifyURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("build notification request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.WebhookSecret != "" {
		req.Header.Set(g.cfg.SignatureHeader, fmt.Sprintf("ts=%d,v1=%s", time.Now().Unix(), signature.Sign(body, g.cfg.WebhookSecret)))
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		slog.Warn("notification delivery failed", "payment_id", p.ID, "error", err)
		return
	}
	defer resp.Body.Close()

	slog.Info("notification delivered",
		"payment_id", p.ID,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init("mock-gateway", "info", cfg.AppEnv)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newGateway(cfg).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("mock gateway started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
