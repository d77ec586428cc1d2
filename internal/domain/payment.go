package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const PaymentStatusApproved = "approved"

// GatewayPayment is the authoritative state of a payment as read back from
// the gateway. Notification bodies are never trusted for these fields.
type GatewayPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	TransactionAmount decimal.Decimal
	Currency          string
	ExternalReference string
	Metadata          map[string]any
}

func (p *GatewayPayment) Approved() bool {
	return p.Status == PaymentStatusApproved
}

// AccountID returns the owning account carried in the payment metadata.
func (p *GatewayPayment) AccountID() (uuid.UUID, error) {
	raw := p.metadataString("account_id", "user_id")
	if raw == "" {
		return uuid.Nil, ErrMissingAccountID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("AccountID: %q: %w", raw, ErrMissingAccountID)
	}
	return id, nil
}

// CreditAmount prefers the intended credit amount from metadata and falls
// back to the charged transaction amount.
func (p *GatewayPayment) CreditAmount() (decimal.Decimal, error) {
	for _, key := range []string{"credit_amount", "amount"} {
		v, ok := p.Metadata[key]
		if !ok || v == nil {
			continue
		}
		d, err := toDecimal(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("CreditAmount: %s: %w", key, ErrInvalidAmount)
		}
		return d, nil
	}
	return p.TransactionAmount, nil
}

// ListingID returns the listing the payer asked to publish, if the checkout
// threaded one through the payment metadata. present reports whether the key
// was set at all; a present value that is not a valid id yields nil, true.
func (p *GatewayPayment) ListingID() (id *uuid.UUID, present bool) {
	raw := p.metadataString("listing_id")
	if raw == "" {
		return nil, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, true
	}
	return &parsed, true
}

func (p *GatewayPayment) metadataString(keys ...string) string {
	for _, key := range keys {
		switch v := p.Metadata[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
