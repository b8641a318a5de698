package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkoutservice "github.com/harborlane/paysync/internal/checkout/service"
	"github.com/harborlane/paysync/internal/config"
	customerlinkrepo "github.com/harborlane/paysync/internal/customerlink/repository"
	customerlinkservice "github.com/harborlane/paysync/internal/customerlink/service"
	"github.com/harborlane/paysync/internal/observability"
	paymentrepo "github.com/harborlane/paysync/internal/payment/repository"
	paymentservice "github.com/harborlane/paysync/internal/payment/service"
	pricerepo "github.com/harborlane/paysync/internal/price/repository"
	"github.com/harborlane/paysync/internal/server"
	"github.com/harborlane/paysync/internal/stripeclient"
	subscriptionrepo "github.com/harborlane/paysync/internal/subscription/repository"
	subscriptionservice "github.com/harborlane/paysync/internal/subscription/service"
	webhookrepo "github.com/harborlane/paysync/internal/webhook/repository"
	webhookservice "github.com/harborlane/paysync/internal/webhook/service"
	webhookstripe "github.com/harborlane/paysync/internal/webhook/stripe"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "whsec_server_test"

func setupServerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:serverdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	stmts := []string{
		`CREATE TABLE stripe_customers (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			stripe_customer_id TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_stripe_customers_user ON stripe_customers(user_id)`,
		`CREATE UNIQUE INDEX ux_stripe_customers_customer ON stripe_customers(stripe_customer_id)`,
		`CREATE TABLE prices (
			id BIGINT PRIMARY KEY,
			stripe_price_id TEXT NOT NULL,
			stripe_product_id TEXT NOT NULL DEFAULT '',
			nickname TEXT NOT NULL DEFAULT '',
			unit_amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			recurring_interval TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_prices_stripe_price ON prices(stripe_price_id)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT,
			price_id BIGINT,
			stripe_subscription_id TEXT NOT NULL,
			stripe_customer_id TEXT NOT NULL DEFAULT '',
			stripe_price_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			current_period_start TIMESTAMP,
			current_period_end TIMESTAMP,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			canceled_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_subscriptions_stripe_subscription ON subscriptions(stripe_subscription_id)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			user_id BIGINT,
			subscription_id BIGINT,
			stripe_customer_id TEXT NOT NULL DEFAULT '',
			stripe_payment_intent_id TEXT,
			stripe_invoice_id TEXT,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_method TEXT NOT NULL DEFAULT '',
			metadata TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payments_intent ON payments(stripe_payment_intent_id)`,
		`CREATE UNIQUE INDEX ux_payments_invoice ON payments(stripe_invoice_id)`,
		`CREATE TABLE webhook_events (
			id BIGINT PRIMARY KEY,
			stripe_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT,
			status TEXT NOT NULL DEFAULT 'received',
			last_error TEXT NOT NULL DEFAULT '',
			received_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX ux_webhook_events_event ON webhook_events(stripe_event_id)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestServer(t *testing.T, db *gorm.DB, webhookSecret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	cfg := config.Config{
		StripeAPIKey:           "sk_test",
		StripeWebhookSecret:    webhookSecret,
		StripeWebhookTolerance: 5 * time.Minute,
	}

	linkSvc := customerlinkservice.New(customerlinkservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  customerlinkrepo.Provide(),
	})
	subscriptionSvc := subscriptionservice.New(subscriptionservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   subscriptionrepo.Provide(),
		Links:  linkSvc,
		Prices: pricerepo.Provide(),
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Repo:          paymentrepo.Provide(),
		Links:         linkSvc,
		Subscriptions: subscriptionrepo.Provide(),
	})
	webhookSvc := webhookservice.New(webhookservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Cfg:           cfg,
		Repo:          webhookrepo.Provide(),
		Payments:      paymentSvc,
		Subscriptions: subscriptionSvc,
	})
	checkoutSvc := checkoutservice.New(checkoutservice.Params{
		DB:  db,
		Log: zap.NewNop(),
		CheckoutCfg: config.NewCheckoutConfigHolderFrom(config.CheckoutConfig{
			AllowedRedirectHosts: []string{"shop.example.com"},
			DefaultSuccessURL:    "https://shop.example.com/checkout/success",
			DefaultCancelURL:     "https://shop.example.com/checkout/cancel",
		}),
		Stripe: stripeclient.New(cfg),
		Prices: pricerepo.Provide(),
		Links:  linkSvc,
	})

	engine := server.NewEngine(observability.Config{}, nil)
	server.NewServer(server.ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		DB:          db,
		WebhookSvc:  webhookSvc,
		CheckoutSvc: checkoutSvc,
		PriceRepo:   pricerepo.Provide(),
	})
	return engine
}

func signEvent(secret string, payload []byte) string {
	timestamp := time.Now().Unix()
	return fmt.Sprintf("t=%d,v1=%s", timestamp, webhookstripe.SignPayload(secret, timestamp, payload))
}

func postWebhook(engine *gin.Engine, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhooks", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEndpointHappyPath(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, testSecret)

	payload := []byte(`{"id":"evt_http_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_http","amount":5000,"currency":"usd"}}}`)
	rec := postWebhook(engine, payload, signEvent(testSecret, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ack struct {
		Received bool `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil || !ack.Received {
		t.Fatalf("expected received ack, got %s", rec.Body.String())
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM payments WHERE stripe_payment_intent_id = 'pi_http' AND status = 'succeeded'`).Scan(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one payment row, got %d", count)
	}
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, testSecret)

	payload := []byte(`{"id":"evt_http_2","type":"payment_intent.succeeded","data":{"object":{"id":"pi_bad","amount":100,"currency":"usd"}}}`)
	rec := postWebhook(engine, payload, signEvent("whsec_other", payload))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM payments`).Scan(&count).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no writes on rejected signature, got %d rows", count)
	}
}

func TestWebhookEndpointMissingSecretIs500(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, "")

	payload := []byte(`{"id":"evt_http_3","type":"payment_intent.succeeded","data":{"object":{"id":"pi_cfg","amount":100,"currency":"usd"}}}`)
	rec := postWebhook(engine, payload, signEvent(testSecret, payload))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing secret, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookEndpointUnknownEventIs200(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, testSecret)

	payload := []byte(`{"id":"evt_http_4","type":"charge.refund.updated","data":{"object":{"id":"re_1"}}}`)
	rec := postWebhook(engine, payload, signEvent(testSecret, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled event, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM webhook_events`).Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit row for ignored event, got %d", count)
	}
}

func TestCheckoutEndpointRejectsInvalidBody(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, testSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/sessions", bytes.NewReader([]byte(`{"mode":"payment"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing price_id, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListPrices(t *testing.T) {
	db := setupServerDB(t)
	engine := newTestServer(t, db, testSecret)

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO prices (id, stripe_price_id, nickname, unit_amount, currency, recurring_interval, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		601, "price_listed", "Starter", 990, "usd", "month", true, now, now,
	).Error; err != nil {
		t.Fatalf("seed price: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Prices []struct {
			Nickname string `json:"nickname"`
		} `json:"prices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Prices) != 1 || resp.Prices[0].Nickname != "Starter" {
		t.Fatalf("unexpected prices: %s", rec.Body.String())
	}
}
