package repository

import (
	"context"
	"time"

	"github.com/harborlane/paysync/internal/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.EventRecord) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (id, stripe_event_id, event_type, payload, status, last_error, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_event_id) DO NOTHING`,
		record.ID,
		record.StripeEventID,
		record.EventType,
		record.Payload,
		record.Status,
		record.LastError,
		record.ReceivedAt,
		record.ProcessedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByStripeEventID(ctx context.Context, db *gorm.DB, stripeEventID string) (*domain.EventRecord, error) {
	var record domain.EventRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, stripe_event_id, event_type, payload, status, last_error, received_at, processed_at
		 FROM webhook_events WHERE stripe_event_id = ?`,
		stripeEventID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, stripeEventID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET status = ?, last_error = '', processed_at = ? WHERE stripe_event_id = ?`,
		domain.EventStatusProcessed,
		at,
		stripeEventID,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, stripeEventID string, reason string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET status = ?, last_error = ? WHERE stripe_event_id = ?`,
		domain.EventStatusFailed,
		reason,
		stripeEventID,
	).Error
}
