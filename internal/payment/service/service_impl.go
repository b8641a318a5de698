package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerlinkdomain "github.com/harborlane/paysync/internal/customerlink/domain"
	"github.com/harborlane/paysync/internal/payment/domain"
	subscriptiondomain "github.com/harborlane/paysync/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Links         customerlinkdomain.Service
	Subscriptions subscriptiondomain.Repository
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	links         customerlinkdomain.Service
	subscriptions subscriptiondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		links:         p.Links,
		subscriptions: p.Subscriptions,
	}
}

func (s *Service) ApplyPaymentIntentSucceeded(ctx context.Context, ev domain.IntentEvent) error {
	return s.upsertIntent(ctx, ev, domain.PaymentStatusSucceeded)
}

func (s *Service) ApplyPaymentIntentFailed(ctx context.Context, ev domain.IntentEvent) error {
	return s.upsertIntent(ctx, ev, domain.PaymentStatusFailed)
}

func (s *Service) upsertIntent(ctx context.Context, ev domain.IntentEvent, status domain.PaymentStatus) error {
	stripePaymentIntentID := strings.TrimSpace(ev.StripePaymentIntentID)
	if stripePaymentIntentID == "" {
		return domain.ErrMissingPaymentIntent
	}

	userID, err := s.resolveUser(ctx, ev.MetadataUserID, ev.StripeCustomerID)
	if err != nil {
		return err
	}

	metadata := datatypes.JSONMap{}
	if ev.FailureMessage != "" {
		metadata["failure_message"] = ev.FailureMessage
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		ID:                    s.genID.Generate(),
		UserID:                userID,
		StripeCustomerID:      strings.TrimSpace(ev.StripeCustomerID),
		StripePaymentIntentID: &stripePaymentIntentID,
		Amount:                ev.Amount,
		Currency:              strings.ToLower(strings.TrimSpace(ev.Currency)),
		Status:                status,
		PaymentMethod:         strings.TrimSpace(ev.PaymentMethod),
		Metadata:              metadata,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.UpsertByPaymentIntent(ctx, s.db, &payment); err != nil {
		return err
	}

	s.log.Info("payment reconciled",
		zap.String("stripe_payment_intent_id", stripePaymentIntentID),
		zap.String("status", string(status)),
	)
	return nil
}

// ApplyCheckoutCompleted attaches checkout correlation to an existing
// payment row. For subscription-mode checkouts there is no direct write;
// the subscription-created event is authoritative. The customer link
// discovered from session metadata is recorded either way.
func (s *Service) ApplyCheckoutCompleted(ctx context.Context, ev domain.CheckoutEvent) error {
	if ev.MetadataUserID != nil && strings.TrimSpace(ev.StripeCustomerID) != "" {
		if _, err := s.links.RecordLink(ctx, *ev.MetadataUserID, ev.StripeCustomerID, ev.CustomerEmail, ""); err != nil {
			return err
		}
	}

	if ev.Mode == "subscription" {
		return nil
	}

	stripePaymentIntentID := strings.TrimSpace(ev.StripePaymentIntentID)
	if stripePaymentIntentID == "" {
		return nil
	}

	payment, err := s.repo.FindByPaymentIntent(ctx, s.db, stripePaymentIntentID)
	if err != nil {
		return err
	}
	if payment == nil {
		// The payment-intent event has not arrived yet; it will create
		// the row on its own.
		return nil
	}

	if payment.Metadata == nil {
		payment.Metadata = datatypes.JSONMap{}
	}
	payment.Metadata["checkout_session_id"] = ev.SessionID
	if ev.CustomerEmail != "" {
		payment.Metadata["customer_email"] = ev.CustomerEmail
	}
	payment.Status = domain.PaymentStatusSucceeded
	if payment.UserID == nil {
		payment.UserID = ev.MetadataUserID
	}
	payment.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, s.db, payment)
}

// ApplyInvoicePaid records the invoice as a succeeded payment linked to
// its subscription. An invoice arriving before its subscription is a
// logged no-op; redelivery after the subscription lands will record it.
func (s *Service) ApplyInvoicePaid(ctx context.Context, ev domain.InvoiceEvent) error {
	stripeInvoiceID := strings.TrimSpace(ev.StripeInvoiceID)
	if stripeInvoiceID == "" {
		return domain.ErrMissingInvoice
	}

	subscription, err := s.subscriptions.FindByStripeSubscriptionID(ctx, s.db, strings.TrimSpace(ev.StripeSubscriptionID))
	if err != nil {
		return err
	}
	if subscription == nil {
		s.log.Warn("invoice paid for unknown subscription",
			zap.String("stripe_invoice_id", stripeInvoiceID),
			zap.String("stripe_subscription_id", ev.StripeSubscriptionID),
		)
		return nil
	}

	userID := subscription.UserID
	if userID == nil {
		userID, err = s.links.ResolveUser(ctx, ev.StripeCustomerID)
		if err != nil {
			return err
		}
	}

	subscriptionID := subscription.ID
	now := time.Now().UTC()
	payment := domain.Payment{
		ID:               s.genID.Generate(),
		UserID:           userID,
		SubscriptionID:   &subscriptionID,
		StripeCustomerID: strings.TrimSpace(ev.StripeCustomerID),
		StripeInvoiceID:  &stripeInvoiceID,
		Amount:           ev.AmountPaid,
		Currency:         strings.ToLower(strings.TrimSpace(ev.Currency)),
		Status:           domain.PaymentStatusSucceeded,
		Metadata:         datatypes.JSONMap{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return s.repo.UpsertByInvoice(ctx, s.db, &payment)
}

// ApplyInvoicePaymentFailed marks an already-recorded invoice payment
// failed. Unknown invoices are a no-op.
func (s *Service) ApplyInvoicePaymentFailed(ctx context.Context, ev domain.InvoiceEvent) error {
	stripeInvoiceID := strings.TrimSpace(ev.StripeInvoiceID)
	if stripeInvoiceID == "" {
		return domain.ErrMissingInvoice
	}

	payment, err := s.repo.FindByInvoice(ctx, s.db, stripeInvoiceID)
	if err != nil {
		return err
	}
	if payment == nil {
		s.log.Warn("invoice payment failed for unknown invoice",
			zap.String("stripe_invoice_id", stripeInvoiceID),
		)
		return nil
	}

	if payment.Metadata == nil {
		payment.Metadata = datatypes.JSONMap{}
	}
	if ev.FailureMessage != "" {
		payment.Metadata["failure_message"] = ev.FailureMessage
	}
	payment.Status = domain.PaymentStatusFailed
	payment.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, s.db, payment)
}

func (s *Service) resolveUser(ctx context.Context, metadataUserID *snowflake.ID, stripeCustomerID string) (*snowflake.ID, error) {
	if metadataUserID != nil {
		return metadataUserID, nil
	}
	return s.links.ResolveUser(ctx, stripeCustomerID)
}
