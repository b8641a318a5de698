package stripe

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/webhook/domain"
)

// Event is the outer webhook envelope. Data.Object stays raw until the
// dispatcher knows which shape the type tag promises.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// ParseEvent decodes and validates the envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrMalformedPayload
	}
	event.ID = strings.TrimSpace(event.ID)
	event.Type = strings.TrimSpace(event.Type)
	if event.ID == "" || event.Type == "" {
		return nil, domain.ErrMalformedPayload
	}
	return &event, nil
}

// Object decodes the inner payload into the shape the event type
// promises.
func (e *Event) Object(v any) error {
	if len(e.Data.Object) == 0 {
		return domain.ErrMalformedPayload
	}
	if err := json.Unmarshal(e.Data.Object, v); err != nil {
		return domain.ErrMalformedPayload
	}
	return nil
}

func (e *Event) OccurredAt() time.Time {
	if e.Created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(e.Created, 0).UTC()
}

type CheckoutSession struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	PaymentIntent   string            `json:"payment_intent"`
	Subscription    string            `json:"subscription"`
	Customer        string            `json:"customer"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

// BuyerEmail prefers the collected customer details over the email hint
// the session was created with.
func (s CheckoutSession) BuyerEmail() string {
	if email := strings.TrimSpace(s.CustomerDetails.Email); email != "" {
		return email
	}
	return strings.TrimSpace(s.CustomerEmail)
}

type PaymentIntent struct {
	ID                 string   `json:"id"`
	Amount             int64    `json:"amount"`
	AmountReceived     int64    `json:"amount_received"`
	Currency           string   `json:"currency"`
	Customer           string   `json:"customer"`
	PaymentMethodTypes []string `json:"payment_method_types"`
	LastPaymentError   *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
}

// ChargedAmount prefers the settled amount when present.
func (p PaymentIntent) ChargedAmount() int64 {
	if p.AmountReceived > 0 {
		return p.AmountReceived
	}
	return p.Amount
}

func (p PaymentIntent) MethodLabel() string {
	if len(p.PaymentMethodTypes) == 0 {
		return ""
	}
	return strings.TrimSpace(p.PaymentMethodTypes[0])
}

func (p PaymentIntent) FailureMessage() string {
	if p.LastPaymentError == nil {
		return ""
	}
	return strings.TrimSpace(p.LastPaymentError.Message)
}

type Invoice struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	AmountPaid   int64             `json:"amount_paid"`
	AmountDue    int64             `json:"amount_due"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

type Subscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CanceledAt         int64  `json:"canceled_at"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

func (s Subscription) PriceID() string {
	if len(s.Items.Data) == 0 {
		return ""
	}
	return strings.TrimSpace(s.Items.Data[0].Price.ID)
}

// MetadataUserID reads the internal user id stamped into session metadata
// at checkout time. Absent or unparsable values resolve to no user.
func MetadataUserID(metadata map[string]string) *snowflake.ID {
	raw := strings.TrimSpace(metadata["user_id"])
	if raw == "" {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil
	}
	return &id
}

// UnixTime converts an epoch-seconds field, treating zero as absent.
func UnixTime(v int64) *time.Time {
	if v == 0 {
		return nil
	}
	t := time.Unix(v, 0).UTC()
	return &t
}
