package domain

import "github.com/bwmarrin/snowflake"

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// CreateSessionRequest starts a hosted checkout flow. UserID is set by
// the transport from the authenticated caller; guests leave it nil and
// may supply an email hint.
type CreateSessionRequest struct {
	UserID        *snowflake.ID     `json:"-"`
	PriceID       string            `json:"price_id" binding:"required"`
	Mode          string            `json:"mode" binding:"required"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	CustomerEmail string            `json:"customer_email"`
	CustomerName  string            `json:"customer_name"`
	Metadata      map[string]string `json:"metadata"`
}

type Session struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
