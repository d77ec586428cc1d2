package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/ledger"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

const notificationTypePayment = "payment"

type signatureVerifier interface {
	Verify(body []byte, header string) error
}

type paymentResolver interface {
	GetPayment(ctx context.Context, paymentID string) (*domain.GatewayPayment, error)
}

type idempotencyGuard interface {
	AlreadyProcessed(ctx context.Context, externalReference string) (bool, error)
	Remember(ctx context.Context, externalReference string)
}

type ledgerWriter interface {
	Credit(ctx context.Context, req ledger.CreditRequest) (*ledger.CreditResult, error)
}

type listingActivator interface {
	Activate(ctx context.Context, ownerID uuid.UUID, listingID *uuid.UUID) (*domain.Listing, error)
}

// Notification is the body the gateway posts. Only Data.ID is used; the
// payment state itself is always read back from the gateway.
type Notification struct {
	Type   string `json:"type" validate:"required"`
	Action string `json:"action"`
	Data   struct {
		ID domain.ExternalID `json:"id"`
	} `json:"data"`
}

// WebhookService reconciles one payment notification against the ledger:
// verify, resolve, check for a prior credit, credit, activate a listing.
type WebhookService struct {
	verifier       signatureVerifier
	resolver       paymentResolver
	guard          idempotencyGuard
	writer         ledgerWriter
	activator      listingActivator
	ledgerCurrency string
	validate       *validator.Validate
}

func NewWebhookService(
	verifier signatureVerifier,
	resolver paymentResolver,
	guard idempotencyGuard,
	writer ledgerWriter,
	activator listingActivator,
	ledgerCurrency string,
) *WebhookService {
	return &WebhookService{
		verifier:       verifier,
		resolver:       resolver,
		guard:          guard,
		writer:         writer,
		activator:      activator,
		ledgerCurrency: ledgerCurrency,
		validate:       validator.New(),
	}
}

func (s *WebhookService) Process(ctx context.Context, body []byte, signatureHeader string) (*domain.WebhookOutcome, error) {
	if err := s.verifier.Verify(body, signatureHeader); err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("Process: decode notification: %v: %w", err, domain.ErrInvalidRequest)
	}
	if err := s.validate.Struct(n); err != nil {
		return nil, fmt.Errorf("Process: %v: %w", err, domain.ErrInvalidRequest)
	}

	if !strings.EqualFold(n.Type, notificationTypePayment) {
		logging.FromContext(ctx).Info("notification ignored", "type", n.Type, "action", n.Action)
		return &domain.WebhookOutcome{
			Status:  domain.WebhookOutcomeSkipped,
			Message: domain.MessageNotProcessed,
		}, nil
	}

	paymentID := n.Data.ID.String()
	if paymentID == "" {
		return nil, fmt.Errorf("Process: %w", domain.ErrMissingPaymentID)
	}

	ctx = logging.With(ctx, "payment_id", paymentID)
	return s.reconcile(ctx, paymentID)
}

func (s *WebhookService) reconcile(ctx context.Context, paymentID string) (*domain.WebhookOutcome, error) {
	log := logging.FromContext(ctx)

	payment, err := s.resolver.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if !payment.Approved() {
		log.Info("payment not approved, skipping", "status", payment.Status, "status_detail", payment.StatusDetail)
		return &domain.WebhookOutcome{
			Status:    domain.WebhookOutcomeSkipped,
			Message:   domain.MessageNotApproved,
			PaymentID: payment.ID,
		}, nil
	}

	if s.ledgerCurrency != "" && payment.Currency != "" && !strings.EqualFold(payment.Currency, s.ledgerCurrency) {
		logging.Incident(ctx).Error("approved payment in unsupported currency",
			"currency", payment.Currency,
			"ledger_currency", s.ledgerCurrency,
		)
		return &domain.WebhookOutcome{
			Status:    domain.WebhookOutcomeSkipped,
			Message:   domain.MessageUnsupportedCurrency,
			PaymentID: payment.ID,
		}, nil
	}

	ref := payment.ID
	processed, err := s.guard.AlreadyProcessed(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	if processed {
		log.Info("payment already processed", "external_reference", ref)
		return duplicateOutcome(payment.ID), nil
	}

	accountID, err := payment.AccountID()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	amount, err := payment.CreditAmount()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	listingID, listingRequested := payment.ListingID()

	ctx = logging.With(ctx, "account_id", accountID, "external_reference", ref)

	result, err := s.writer.Credit(ctx, ledger.CreditRequest{
		AccountID:         accountID,
		Amount:            amount,
		ExternalReference: ref,
		Metadata: domain.TransactionMetadata{
			ExternalReference: payment.ExternalReference,
			OriginalAmount:    payment.TransactionAmount,
			GatewayPaymentID:  payment.ID,
			Currency:          payment.Currency,
			ListingID:         listingID,
		},
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			logging.FromContext(ctx).Info("concurrent delivery already credited this payment")
			s.guard.Remember(ctx, ref)
			return duplicateOutcome(payment.ID), nil
		}
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	s.guard.Remember(ctx, ref)

	outcome := &domain.WebhookOutcome{
		Status:        domain.WebhookOutcomeCredited,
		Message:       domain.MessageCredited,
		PaymentID:     payment.ID,
		AccountID:     accountID,
		NewBalance:    &result.NewBalance,
		TransactionID: &result.Transaction.ID,
	}

	if listingRequested && listingID == nil {
		logging.FromContext(ctx).Warn("listing_id in payment metadata is not a valid id, skipping activation")
		return outcome, nil
	}

	activated, err := s.activator.Activate(ctx, accountID, listingID)
	if err != nil {
		logging.FromContext(ctx).Error("listing activation failed after credit", "error", err)
	} else if activated != nil {
		outcome.ListingID = &activated.ID
	}

	return outcome, nil
}

func duplicateOutcome(paymentID string) *domain.WebhookOutcome {
	return &domain.WebhookOutcome{
		Status:    domain.WebhookOutcomeDuplicate,
		Message:   domain.MessageAlreadyProcessed,
		PaymentID: paymentID,
	}
}
