package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harborlane/paysync/internal/webhook/domain"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, SignPayload(secret, timestamp, payload))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	verifier := NewVerifier(secret, 5*time.Minute)

	if err := verifier.Verify(payload, buildSignatureHeader(secret, payload, timestamp)); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	if err := verifier.Verify(payload, buildSignatureHeader("whsec_wrong", payload, timestamp)); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{"amount":5000}}}`)
	timestamp := time.Now().Unix()
	header := buildSignatureHeader(secret, payload, timestamp)

	tampered := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{"amount":9999}}}`)
	verifier := NewVerifier(secret, 5*time.Minute)
	if err := verifier.Verify(tampered, header); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for tampered body, got %v", err)
	}
}

func TestVerifySignatureOutsideTolerance(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123"}`)
	timestamp := time.Now().Add(-10 * time.Minute).Unix()
	header := buildSignatureHeader(secret, payload, timestamp)

	verifier := NewVerifier(secret, 5*time.Minute)
	if err := verifier.Verify(payload, header); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected stale timestamp rejection, got %v", err)
	}

	// A fixed clock inside the window accepts the same header.
	verifier.now = func() time.Time { return time.Unix(timestamp, 0).Add(time.Minute) }
	if err := verifier.Verify(payload, header); err != nil {
		t.Fatalf("expected signature within tolerance, got %v", err)
	}
}

func TestVerifySignatureMissingSecret(t *testing.T) {
	verifier := NewVerifier("", 5*time.Minute)
	err := verifier.Verify([]byte(`{}`), "t=1,v1=abc")
	if !errors.Is(err, domain.ErrMissingSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	verifier := NewVerifier("whsec_test", 0)
	for _, header := range []string{"", "garbage", "t=123", "v1=abc"} {
		if err := verifier.Verify([]byte(`{}`), header); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("header %q: expected invalid signature, got %v", header, err)
		}
	}
}
