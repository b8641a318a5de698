package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/checkout/domain"
	"github.com/harborlane/paysync/internal/config"
	customerlinkdomain "github.com/harborlane/paysync/internal/customerlink/domain"
	"github.com/harborlane/paysync/internal/observability/metrics"
	pricedomain "github.com/harborlane/paysync/internal/price/domain"
	"github.com/harborlane/paysync/internal/stripeclient"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	CheckoutCfg *config.CheckoutConfigHolder
	Stripe      *stripeclient.Client
	Prices      pricedomain.Repository
	Links       customerlinkdomain.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	checkoutCfg *config.CheckoutConfigHolder
	stripe      *stripeclient.Client
	prices      pricedomain.Repository
	links       customerlinkdomain.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("checkout.service"),
		checkoutCfg: p.CheckoutCfg,
		stripe:      p.Stripe,
		prices:      p.Prices,
		links:       p.Links,
		metrics:     p.Metrics,
	}
}

// CreateSession resolves the price, ensures a customer link for
// authenticated callers, and requests a hosted session. The internal user
// id is stamped into session metadata so webhook events can resolve back
// to the user without a lookup.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (domain.Session, error) {
	mode := strings.TrimSpace(req.Mode)
	if mode != domain.ModePayment && mode != domain.ModeSubscription {
		return domain.Session{}, domain.ErrInvalidMode
	}

	priceID, err := snowflake.ParseString(strings.TrimSpace(req.PriceID))
	if err != nil {
		return domain.Session{}, domain.ErrInvalidPrice
	}
	price, err := s.prices.FindByID(ctx, s.db, priceID)
	if err != nil {
		return domain.Session{}, err
	}
	if price == nil || !price.Active {
		return domain.Session{}, domain.ErrPriceNotFound
	}
	if price.Recurring() != (mode == domain.ModeSubscription) {
		return domain.Session{}, domain.ErrModeMismatch
	}

	successURL, cancelURL, err := s.redirectTargets(req.SuccessURL, req.CancelURL)
	if err != nil {
		return domain.Session{}, err
	}

	metadata := map[string]string{}
	for key, value := range req.Metadata {
		metadata[key] = value
	}

	params := stripeclient.CreateSessionParams{
		Mode:          mode,
		StripePriceID: price.StripePriceID,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Metadata:      metadata,
	}

	if req.UserID != nil {
		metadata["user_id"] = req.UserID.String()
		customer, err := s.ensureCustomer(ctx, *req.UserID, req.CustomerEmail, req.CustomerName)
		if err != nil {
			return domain.Session{}, err
		}
		params.Customer = customer
		params.IdempotencyKey = "checkout:" + req.UserID.String() + ":" + price.ID.String()
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return domain.Session{}, err
	}

	s.metrics.RecordCheckoutSession(ctx, mode)
	s.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("mode", mode),
	)
	return domain.Session{SessionID: session.ID, URL: session.URL}, nil
}

// ensureCustomer returns the stripe customer id for the user, creating
// the processor-side customer and the local link on first use.
func (s *Service) ensureCustomer(ctx context.Context, userID snowflake.ID, email, name string) (string, error) {
	link, err := s.links.FindByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if link != nil {
		return link.StripeCustomerID, nil
	}

	customer, err := s.stripe.CreateCustomer(ctx, stripeclient.CreateCustomerParams{
		Email:    strings.TrimSpace(email),
		Name:     strings.TrimSpace(name),
		Metadata: map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return "", err
	}

	stored, err := s.links.RecordLink(ctx, userID, customer.ID, customer.Email, customer.Name)
	if err != nil {
		return "", err
	}
	return stored.StripeCustomerID, nil
}

func (s *Service) redirectTargets(successURL, cancelURL string) (string, string, error) {
	cfg := s.checkoutCfg.Get()
	successURL = strings.TrimSpace(successURL)
	cancelURL = strings.TrimSpace(cancelURL)
	if successURL == "" {
		successURL = cfg.DefaultSuccessURL
	}
	if cancelURL == "" {
		cancelURL = cfg.DefaultCancelURL
	}
	if !s.checkoutCfg.RedirectAllowed(successURL) || !s.checkoutCfg.RedirectAllowed(cancelURL) {
		return "", "", domain.ErrRedirectNotAllowed
	}
	return successURL, cancelURL, nil
}
