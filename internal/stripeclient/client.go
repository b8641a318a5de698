package stripeclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harborlane/paysync/internal/config"
	"go.uber.org/fx"
)

var (
	ErrMissingAPIKey  = errors.New("stripe api key not configured")
	ErrInvalidRequest = errors.New("invalid stripe request")
)

const defaultBaseURL = "https://api.stripe.com"

// Client is a minimal form-encoded Stripe API client covering the two
// calls checkout initiation needs. Safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different API host. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func New(cfg config.Config, opts ...Option) *Client {
	timeout := cfg.StripeAPITimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	c := &Client{
		apiKey:  strings.TrimSpace(cfg.StripeAPIKey),
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var Module = fx.Module("stripe.client",
	fx.Provide(func(cfg config.Config) *Client { return New(cfg) }),
)

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CreateCustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

func (c *Client) CreateCustomer(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	values := url.Values{}
	if params.Email != "" {
		values.Set("email", params.Email)
	}
	if params.Name != "" {
		values.Set("name", params.Name)
	}
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}

	var customer Customer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, "", &customer); err != nil {
		return Customer{}, err
	}
	if customer.ID == "" {
		return Customer{}, errors.New("stripe_response_invalid")
	}
	return customer, nil
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CreateSessionParams struct {
	Mode           string
	StripePriceID  string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	Customer       string
	CustomerEmail  string
	Metadata       map[string]string
	IdempotencyKey string
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (CheckoutSession, error) {
	if params.StripePriceID == "" || params.Mode == "" {
		return CheckoutSession{}, ErrInvalidRequest
	}
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	values := url.Values{}
	values.Set("mode", params.Mode)
	values.Set("line_items[0][price]", params.StripePriceID)
	values.Set("line_items[0][quantity]", strconv.FormatInt(quantity, 10))
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.Customer != "" {
		values.Set("customer", params.Customer)
	} else if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}

	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, params.IdempotencyKey, &session); err != nil {
		return CheckoutSession{}, err
	}
	if session.ID == "" {
		return CheckoutSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
