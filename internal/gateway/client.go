package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

// Client resolves payment state by reading it back from the gateway.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	validate    *validator.Validate
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		validate: validator.New(),
	}
}

type paymentResponse struct {
	ID                domain.ExternalID `json:"id" validate:"required"`
	Status            string            `json:"status" validate:"required"`
	StatusDetail      string            `json:"status_detail"`
	TransactionAmount decimal.Decimal   `json:"transaction_amount"`
	CurrencyID        string            `json:"currency_id"`
	ExternalReference string            `json:"external_reference"`
	Metadata          map[string]any    `json:"metadata"`
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*domain.GatewayPayment, error) {
	log := logging.FromContext(ctx)

	if c.accessToken == "" {
		return nil, fmt.Errorf("GetPayment: gateway access token: %w", domain.ErrConfiguration)
	}

	endpoint := c.baseURL + "/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	log.Info("gateway request sent", "provider", "payment_gateway", "payment_id", paymentID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: send: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	log.Info("gateway response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GetPayment: unexpected status %d: %s: %w", resp.StatusCode, string(respBody), domain.ErrUpstreamUnavailable)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, 1<<20))
	dec.UseNumber()

	var body paymentResponse
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("GetPayment: decode: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	if err := c.validate.Struct(body); err != nil {
		return nil, fmt.Errorf("GetPayment: invalid payment: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	return &domain.GatewayPayment{
		ID:                string(body.ID),
		Status:            strings.ToLower(body.Status),
		StatusDetail:      body.StatusDetail,
		TransactionAmount: body.TransactionAmount,
		Currency:          body.CurrencyID,
		ExternalReference: body.ExternalReference,
		Metadata:          body.Metadata,
	}, nil
}
