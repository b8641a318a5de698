package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/customerlink/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customerlink.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) ResolveUser(ctx context.Context, stripeCustomerID string) (*snowflake.ID, error) {
	stripeCustomerID = strings.TrimSpace(stripeCustomerID)
	if stripeCustomerID == "" {
		return nil, nil
	}

	link, err := s.repo.FindByStripeCustomerID(ctx, s.db, stripeCustomerID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}

	userID := link.UserID
	return &userID, nil
}

func (s *Service) RecordLink(ctx context.Context, userID snowflake.ID, stripeCustomerID, email, name string) (*domain.CustomerLink, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	stripeCustomerID = strings.TrimSpace(stripeCustomerID)
	if stripeCustomerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	now := time.Now().UTC()
	link := domain.CustomerLink{
		ID:               s.genID.Generate(),
		UserID:           userID,
		StripeCustomerID: stripeCustomerID,
		Email:            strings.TrimSpace(email),
		Name:             strings.TrimSpace(name),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Upsert(ctx, s.db, &link); err != nil {
		return nil, err
	}

	// Concurrent discovery of the same customer converges on the first
	// inserted row, so read back the surviving record.
	stored, err := s.repo.FindByStripeCustomerID(ctx, s.db, stripeCustomerID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &link, nil
	}
	return stored, nil
}

func (s *Service) FindByUser(ctx context.Context, userID snowflake.ID) (*domain.CustomerLink, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.FindByUserID(ctx, s.db, userID)
}
