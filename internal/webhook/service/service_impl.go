package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/config"
	"github.com/harborlane/paysync/internal/observability/metrics"
	paymentdomain "github.com/harborlane/paysync/internal/payment/domain"
	subscriptiondomain "github.com/harborlane/paysync/internal/subscription/domain"
	"github.com/harborlane/paysync/internal/webhook/domain"
	"github.com/harborlane/paysync/internal/webhook/stripe"
	pkgdb "github.com/harborlane/paysync/pkg/db"
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
	Cfg           config.Config
	Repo          domain.Repository
	Payments      paymentdomain.Service
	Subscriptions subscriptiondomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	verifier      *stripe.Verifier
	repo          domain.Repository
	payments      paymentdomain.Service
	subscriptions subscriptiondomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("webhook.service"),
		genID:         p.GenID,
		verifier:      stripe.NewVerifier(p.Cfg.StripeWebhookSecret, p.Cfg.StripeWebhookTolerance),
		repo:          p.Repo,
		payments:      p.Payments,
		subscriptions: p.Subscriptions,
		metrics:       p.Metrics,
	}
}

// Ingest runs the full pipeline for one delivery: verify the raw body,
// parse the envelope, dedup on the event id, dispatch. Handler failures
// are absorbed into an acknowledged result; the processor's redelivery is
// the only retry path.
func (s *Service) Ingest(ctx context.Context, payload []byte, signatureHeader string) (domain.AckResult, error) {
	if err := s.verifier.Verify(payload, signatureHeader); err != nil {
		return domain.AckResult{}, err
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		return domain.AckResult{}, err
	}

	handler := s.route(event.Type)
	if handler == nil {
		s.log.Debug("ignoring webhook event",
			zap.String("stripe_event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		s.metrics.RecordWebhookIgnored(ctx, event.Type)
		return domain.AckResult{Received: true, Ignored: true}, nil
	}

	record := domain.EventRecord{
		ID:            s.genID.Generate(),
		StripeEventID: event.ID,
		EventType:     event.Type,
		Payload:       datatypes.JSON(payload),
		Status:        domain.EventStatusReceived,
		ReceivedAt:    time.Now().UTC(),
	}
	inserted, err := s.repo.Insert(ctx, s.db, &record)
	if err != nil {
		// A concurrent delivery of the same event can lose the insert
		// race as a unique violation instead of a conflict no-op.
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.AckResult{Received: true, Duplicate: true}, nil
		}
		return s.absorb(ctx, event, err), nil
	}
	if !inserted {
		stored, err := s.repo.FindByStripeEventID(ctx, s.db, event.ID)
		if err != nil {
			return s.absorb(ctx, event, err), nil
		}
		if stored != nil && stored.Status == domain.EventStatusProcessed {
			s.log.Info("duplicate webhook delivery",
				zap.String("stripe_event_id", event.ID),
				zap.String("event_type", event.Type),
			)
			return domain.AckResult{Received: true, Duplicate: true}, nil
		}
		// Recorded but never processed: an earlier delivery failed
		// mid-flight, so run the handler again.
	}

	if err := handler(ctx, event); err != nil {
		if errors.Is(err, domain.ErrMalformedPayload) {
			return domain.AckResult{}, err
		}
		if markErr := s.repo.MarkFailed(ctx, s.db, event.ID, err.Error()); markErr != nil {
			s.log.Error("marking webhook event failed", zap.Error(markErr))
		}
		return s.absorb(ctx, event, err), nil
	}

	if err := s.repo.MarkProcessed(ctx, s.db, event.ID, time.Now().UTC()); err != nil {
		s.log.Error("marking webhook event processed", zap.Error(err))
	}

	s.metrics.RecordWebhookReceived(ctx, event.Type)
	return domain.AckResult{Received: true}, nil
}

// absorb logs a handler failure and folds it into an acknowledged result.
func (s *Service) absorb(ctx context.Context, event *stripe.Event, err error) domain.AckResult {
	s.log.Error("webhook handler failed",
		zap.String("stripe_event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Error(err),
	)
	s.metrics.RecordWebhookFailed(ctx, event.Type)
	return domain.AckResult{Received: true, Error: "handler_failed"}
}

type handlerFunc func(ctx context.Context, event *stripe.Event) error

func (s *Service) route(eventType string) handlerFunc {
	switch eventType {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted
	case "payment_intent.succeeded":
		return s.handlePaymentIntentSucceeded
	case "payment_intent.payment_failed":
		return s.handlePaymentIntentFailed
	case "customer.subscription.created":
		return s.handleSubscriptionCreated
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted
	case "invoice.paid":
		return s.handleInvoicePaid
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := event.Object(&session); err != nil {
		return err
	}
	return s.payments.ApplyCheckoutCompleted(ctx, paymentdomain.CheckoutEvent{
		SessionID:             session.ID,
		Mode:                  session.Mode,
		StripePaymentIntentID: session.PaymentIntent,
		StripeSubscriptionID:  session.Subscription,
		StripeCustomerID:      session.Customer,
		CustomerEmail:         session.BuyerEmail(),
		MetadataUserID:        stripe.MetadataUserID(session.Metadata),
	})
}

func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, event *stripe.Event) error {
	ev, err := intentEvent(event)
	if err != nil {
		return err
	}
	return s.payments.ApplyPaymentIntentSucceeded(ctx, ev)
}

func (s *Service) handlePaymentIntentFailed(ctx context.Context, event *stripe.Event) error {
	ev, err := intentEvent(event)
	if err != nil {
		return err
	}
	return s.payments.ApplyPaymentIntentFailed(ctx, ev)
}

func intentEvent(event *stripe.Event) (paymentdomain.IntentEvent, error) {
	var intent stripe.PaymentIntent
	if err := event.Object(&intent); err != nil {
		return paymentdomain.IntentEvent{}, err
	}
	return paymentdomain.IntentEvent{
		StripePaymentIntentID: intent.ID,
		StripeCustomerID:      intent.Customer,
		Amount:                intent.ChargedAmount(),
		Currency:              intent.Currency,
		PaymentMethod:         intent.MethodLabel(),
		FailureMessage:        intent.FailureMessage(),
		MetadataUserID:        stripe.MetadataUserID(intent.Metadata),
	}, nil
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, event *stripe.Event) error {
	ev, err := subscriptionEvent(event)
	if err != nil {
		return err
	}
	return s.subscriptions.ApplyCreated(ctx, ev)
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	ev, err := subscriptionEvent(event)
	if err != nil {
		return err
	}
	return s.subscriptions.ApplyUpdated(ctx, ev)
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	ev, err := subscriptionEvent(event)
	if err != nil {
		return err
	}
	return s.subscriptions.ApplyDeleted(ctx, ev)
}

func subscriptionEvent(event *stripe.Event) (subscriptiondomain.SubscriptionEvent, error) {
	var subscription stripe.Subscription
	if err := event.Object(&subscription); err != nil {
		return subscriptiondomain.SubscriptionEvent{}, err
	}
	return subscriptiondomain.SubscriptionEvent{
		StripeSubscriptionID: subscription.ID,
		StripeCustomerID:     subscription.Customer,
		StripePriceID:        subscription.PriceID(),
		Status:               subscription.Status,
		CurrentPeriodStart:   stripe.UnixTime(subscription.CurrentPeriodStart),
		CurrentPeriodEnd:     stripe.UnixTime(subscription.CurrentPeriodEnd),
		CancelAtPeriodEnd:    subscription.CancelAtPeriodEnd,
		CanceledAt:           stripe.UnixTime(subscription.CanceledAt),
		MetadataUserID:       stripe.MetadataUserID(subscription.Metadata),
		OccurredAt:           event.OccurredAt(),
	}, nil
}

func (s *Service) handleInvoicePaid(ctx context.Context, event *stripe.Event) error {
	ev, err := invoiceEvent(event)
	if err != nil {
		return err
	}
	return s.payments.ApplyInvoicePaid(ctx, ev)
}

func (s *Service) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	ev, err := invoiceEvent(event)
	if err != nil {
		return err
	}
	return s.payments.ApplyInvoicePaymentFailed(ctx, ev)
}

func invoiceEvent(event *stripe.Event) (paymentdomain.InvoiceEvent, error) {
	var invoice stripe.Invoice
	if err := event.Object(&invoice); err != nil {
		return paymentdomain.InvoiceEvent{}, err
	}
	return paymentdomain.InvoiceEvent{
		StripeInvoiceID:      invoice.ID,
		StripeCustomerID:     invoice.Customer,
		StripeSubscriptionID: invoice.Subscription,
		AmountPaid:           invoice.AmountPaid,
		AmountDue:            invoice.AmountDue,
		Currency:             invoice.Currency,
	}, nil
}
