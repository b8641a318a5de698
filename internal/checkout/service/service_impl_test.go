package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	checkoutdomain "github.com/harborlane/paysync/internal/checkout/domain"
	checkoutservice "github.com/harborlane/paysync/internal/checkout/service"
	"github.com/harborlane/paysync/internal/config"
	customerlinkrepo "github.com/harborlane/paysync/internal/customerlink/repository"
	customerlinkservice "github.com/harborlane/paysync/internal/customerlink/service"
	pricerepo "github.com/harborlane/paysync/internal/price/repository"
	"github.com/harborlane/paysync/internal/stripeclient"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stripeCall struct {
	path string
	form map[string]string
}

func newFakeStripe(t *testing.T) (*httptest.Server, *[]stripeCall) {
	t.Helper()

	calls := &[]stripeCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form := map[string]string{}
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}
		*calls = append(*calls, stripeCall{path: r.URL.Path, form: form})

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/customers":
			fmt.Fprint(w, `{"id":"cus_new","email":"buyer@example.com"}`)
		case "/v1/checkout/sessions":
			fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"message":"unknown path"}}`)
		}
	}))
	t.Cleanup(server.Close)
	return server, calls
}

func setupCheckoutDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:checkoutdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
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
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedPrice(t *testing.T, db *gorm.DB, id int64, stripePriceID, interval string) {
	t.Helper()

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO prices (id, stripe_price_id, unit_amount, currency, recurring_interval, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, stripePriceID, 2500, "usd", interval, true, now, now,
	).Error; err != nil {
		t.Fatalf("seed price: %v", err)
	}
}

func newCheckoutService(t *testing.T, db *gorm.DB, baseURL string) checkoutdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	linkSvc := customerlinkservice.New(customerlinkservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  customerlinkrepo.Provide(),
	})

	client := stripeclient.New(
		config.Config{StripeAPIKey: "sk_test", StripeAPITimeout: 5 * time.Second},
		stripeclient.WithBaseURL(baseURL),
	)

	holder := config.NewCheckoutConfigHolderFrom(config.CheckoutConfig{
		AllowedRedirectHosts: []string{"shop.example.com"},
		DefaultSuccessURL:    "https://shop.example.com/checkout/success",
		DefaultCancelURL:     "https://shop.example.com/checkout/cancel",
	})

	return checkoutservice.New(checkoutservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		CheckoutCfg: holder,
		Stripe:      client,
		Prices:      pricerepo.Provide(),
		Links:       linkSvc,
	})
}

func TestCreateSessionStampsUserMetadata(t *testing.T) {
	db := setupCheckoutDB(t)
	server, calls := newFakeStripe(t)
	svc := newCheckoutService(t, db, server.URL)

	seedPrice(t, db, 501, "price_monthly", "month")

	userID := snowflake.ID(4242)
	session, err := svc.CreateSession(context.Background(), checkoutdomain.CreateSessionRequest{
		UserID:        &userID,
		PriceID:       "501",
		Mode:          "subscription",
		CustomerEmail: "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.SessionID != "cs_test_1" || session.URL == "" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if len(*calls) != 2 {
		t.Fatalf("expected customer + session calls, got %d", len(*calls))
	}
	customerCall := (*calls)[0]
	if customerCall.path != "/v1/customers" || customerCall.form["metadata[user_id]"] != "4242" {
		t.Fatalf("unexpected customer call: %+v", customerCall)
	}
	sessionCall := (*calls)[1]
	if sessionCall.form["metadata[user_id]"] != "4242" {
		t.Fatalf("expected user id stamped into session metadata, got %+v", sessionCall.form)
	}
	if sessionCall.form["customer"] != "cus_new" {
		t.Fatalf("expected session bound to created customer, got %+v", sessionCall.form)
	}
	if sessionCall.form["line_items[0][price]"] != "price_monthly" {
		t.Fatalf("expected resolved stripe price, got %+v", sessionCall.form)
	}

	// The discovered link is persisted for webhook-side resolution.
	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM stripe_customers WHERE user_id = 4242 AND stripe_customer_id = 'cus_new'`).Scan(&count).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one customer link, got %d", count)
	}
}

func TestCreateSessionReusesExistingLink(t *testing.T) {
	db := setupCheckoutDB(t)
	server, calls := newFakeStripe(t)
	svc := newCheckoutService(t, db, server.URL)

	seedPrice(t, db, 502, "price_once", "")
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO stripe_customers (id, user_id, stripe_customer_id, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		900, 4242, "cus_existing", "buyer@example.com", now, now,
	).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	userID := snowflake.ID(4242)
	if _, err := svc.CreateSession(context.Background(), checkoutdomain.CreateSessionRequest{
		UserID:  &userID,
		PriceID: "502",
		Mode:    "payment",
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected only the session call, got %d", len(*calls))
	}
	if (*calls)[0].form["customer"] != "cus_existing" {
		t.Fatalf("expected existing customer reused, got %+v", (*calls)[0].form)
	}
}

func TestCreateSessionGuestUsesEmailOnly(t *testing.T) {
	db := setupCheckoutDB(t)
	server, calls := newFakeStripe(t)
	svc := newCheckoutService(t, db, server.URL)

	seedPrice(t, db, 503, "price_once", "")

	if _, err := svc.CreateSession(context.Background(), checkoutdomain.CreateSessionRequest{
		PriceID:       "503",
		Mode:          "payment",
		CustomerEmail: "guest@example.com",
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected no customer creation for guests, got %d calls", len(*calls))
	}
	form := (*calls)[0].form
	if form["customer_email"] != "guest@example.com" || form["customer"] != "" {
		t.Fatalf("expected email-only guest session, got %+v", form)
	}
	if _, ok := form["metadata[user_id]"]; ok {
		t.Fatalf("guest session must not carry a user id, got %+v", form)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	db := setupCheckoutDB(t)
	server, _ := newFakeStripe(t)
	svc := newCheckoutService(t, db, server.URL)

	seedPrice(t, db, 504, "price_monthly", "month")

	cases := []struct {
		name string
		req  checkoutdomain.CreateSessionRequest
		want error
	}{
		{
			name: "bad mode",
			req:  checkoutdomain.CreateSessionRequest{PriceID: "504", Mode: "donation"},
			want: checkoutdomain.ErrInvalidMode,
		},
		{
			name: "unparsable price",
			req:  checkoutdomain.CreateSessionRequest{PriceID: "not-a-price", Mode: "payment"},
			want: checkoutdomain.ErrInvalidPrice,
		},
		{
			name: "unknown price",
			req:  checkoutdomain.CreateSessionRequest{PriceID: "999999", Mode: "payment"},
			want: checkoutdomain.ErrPriceNotFound,
		},
		{
			name: "recurring price in payment mode",
			req:  checkoutdomain.CreateSessionRequest{PriceID: "504", Mode: "payment"},
			want: checkoutdomain.ErrModeMismatch,
		},
		{
			name: "redirect host not allowed",
			req: checkoutdomain.CreateSessionRequest{
				PriceID:    "504",
				Mode:       "subscription",
				SuccessURL: "https://evil.example.net/success",
			},
			want: checkoutdomain.ErrRedirectNotAllowed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
