package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

const maxWebhookBody = 1 << 20

type webhookProcessor interface {
	Process(ctx context.Context, body []byte, signatureHeader string) (*domain.WebhookOutcome, error)
}

type WebhookHandler struct {
	processor       webhookProcessor
	signatureHeader string
}

func NewWebhookHandler(processor webhookProcessor, signatureHeader string) *WebhookHandler {
	return &WebhookHandler{processor: processor, signatureHeader: signatureHeader}
}

type webhookOutcomeDTO struct {
	Status        string     `json:"status"`
	PaymentID     string     `json:"payment_id,omitempty"`
	AccountID     *uuid.UUID `json:"account_id,omitempty"`
	NewBalance    *string    `json:"new_balance,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	ListingID     *uuid.UUID `json:"listing_id,omitempty"`
}

func toWebhookOutcomeDTO(o *domain.WebhookOutcome) webhookOutcomeDTO {
	dto := webhookOutcomeDTO{
		Status:        string(o.Status),
		PaymentID:     o.PaymentID,
		TransactionID: o.TransactionID,
		ListingID:     o.ListingID,
	}
	if o.AccountID != uuid.Nil {
		id := o.AccountID
		dto.AccountID = &id
	}
	if o.NewBalance != nil {
		b := o.NewBalance.StringFixed(2)
		dto.NewBalance = &b
	}
	return dto
}

func (h *WebhookHandler) ReceivePaymentNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if len(body) > maxWebhookBody {
		log.Warn("webhook body exceeds limit", "limit_bytes", maxWebhookBody)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	outcome, err := h.processor.Process(ctx, body, r.Header.Get(h.signatureHeader))
	if err != nil {
		h.logFailure(ctx, err)
		RespondDomainError(w, err)
		return
	}

	RespondMessage(w, http.StatusOK, outcome.Message, toWebhookOutcomeDTO(outcome))
}

func (h *WebhookHandler) logFailure(ctx context.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingSignature), errors.Is(err, domain.ErrInvalidSignature):
		logging.Security(ctx).Warn("webhook rejected", "error", err)
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrLedgerWriteFailed):
		logging.Incident(ctx).Error("webhook processing failed", "error", err)
	default:
		logging.FromContext(ctx).Warn("webhook not processed", "error", err)
	}
}
