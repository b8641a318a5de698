package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerlinkdomain "github.com/harborlane/paysync/internal/customerlink/domain"
	pricedomain "github.com/harborlane/paysync/internal/price/domain"
	"github.com/harborlane/paysync/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Links  customerlinkdomain.Service
	Prices pricedomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	links  customerlinkdomain.Service
	prices pricedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("subscription.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		links:  p.Links,
		prices: p.Prices,
	}
}

func (s *Service) ApplyCreated(ctx context.Context, ev domain.SubscriptionEvent) error {
	return s.apply(ctx, ev, domain.SubscriptionStatus(strings.TrimSpace(ev.Status)), ev.CanceledAt)
}

// ApplyUpdated upserts rather than updating so an update delivered before
// the create still records the subscription.
func (s *Service) ApplyUpdated(ctx context.Context, ev domain.SubscriptionEvent) error {
	return s.apply(ctx, ev, domain.SubscriptionStatus(strings.TrimSpace(ev.Status)), ev.CanceledAt)
}

func (s *Service) ApplyDeleted(ctx context.Context, ev domain.SubscriptionEvent) error {
	canceledAt := ev.CanceledAt
	if canceledAt == nil {
		at := ev.OccurredAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		canceledAt = &at
	}
	return s.apply(ctx, ev, domain.SubscriptionStatusCanceled, canceledAt)
}

func (s *Service) apply(ctx context.Context, ev domain.SubscriptionEvent, status domain.SubscriptionStatus, canceledAt *time.Time) error {
	stripeSubscriptionID := strings.TrimSpace(ev.StripeSubscriptionID)
	if stripeSubscriptionID == "" {
		return domain.ErrMissingSubscription
	}

	userID, err := s.resolveUser(ctx, ev)
	if err != nil {
		return err
	}

	priceID, err := s.resolvePrice(ctx, ev.StripePriceID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	subscription := domain.Subscription{
		ID:                   s.genID.Generate(),
		UserID:               userID,
		PriceID:              priceID,
		StripeSubscriptionID: stripeSubscriptionID,
		StripeCustomerID:     strings.TrimSpace(ev.StripeCustomerID),
		StripePriceID:        strings.TrimSpace(ev.StripePriceID),
		Status:               status,
		CurrentPeriodStart:   ev.CurrentPeriodStart,
		CurrentPeriodEnd:     ev.CurrentPeriodEnd,
		CancelAtPeriodEnd:    ev.CancelAtPeriodEnd,
		CanceledAt:           canceledAt,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Upsert(ctx, s.db, &subscription); err != nil {
		return err
	}

	s.log.Info("subscription reconciled",
		zap.String("stripe_subscription_id", stripeSubscriptionID),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *Service) resolveUser(ctx context.Context, ev domain.SubscriptionEvent) (*snowflake.ID, error) {
	if ev.MetadataUserID != nil {
		return ev.MetadataUserID, nil
	}
	return s.links.ResolveUser(ctx, ev.StripeCustomerID)
}

// resolvePrice returns nil when the catalog mirror does not know the
// price; recording the subscription must not block on the mirror.
func (s *Service) resolvePrice(ctx context.Context, stripePriceID string) (*snowflake.ID, error) {
	stripePriceID = strings.TrimSpace(stripePriceID)
	if stripePriceID == "" {
		return nil, nil
	}
	price, err := s.prices.FindByStripePriceID(ctx, s.db, stripePriceID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, nil
	}
	id := price.ID
	return &id, nil
}
