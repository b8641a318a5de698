package domain

import "context"

// Service is the transport-agnostic ingestion pipeline: verify the raw
// body, parse the envelope, dedup, and dispatch to exactly one handler.
// Any HTTP transport wrapping it stays a thin adapter.
type Service interface {
	Ingest(ctx context.Context, payload []byte, signatureHeader string) (AckResult, error)
}
