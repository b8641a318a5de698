package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	EventStatusReceived  = "received"
	EventStatusProcessed = "processed"
	EventStatusFailed    = "failed"
)

// EventRecord is the audit row for one delivered webhook event, keyed on
// the processor's event id so redeliveries collapse onto one row.
type EventRecord struct {
	ID            snowflake.ID   `gorm:"column:id;primaryKey" json:"id"`
	StripeEventID string         `gorm:"column:stripe_event_id" json:"stripe_event_id"`
	EventType     string         `gorm:"column:event_type" json:"event_type"`
	Payload       datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Status        string         `gorm:"column:status" json:"status"`
	LastError     string         `gorm:"column:last_error" json:"last_error,omitempty"`
	ReceivedAt    time.Time      `gorm:"column:received_at" json:"received_at"`
	ProcessedAt   *time.Time     `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

func (EventRecord) TableName() string { return "webhook_events" }

// AckResult is the acknowledgement returned to the processor. Handler
// failures still acknowledge; the processor's redelivery is the only
// retry path and must not be amplified by non-2xx responses.
type AckResult struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Error     string `json:"error,omitempty"`
}
