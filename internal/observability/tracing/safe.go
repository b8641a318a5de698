package tracing

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
)

var allowedSpanKeys = map[attribute.Key]struct{}{
	"request_id":              {},
	"http.method":             {},
	"http.route":              {},
	"http.status_code":        {},
	"http.server_duration_ms": {},
	"event_type":              {},
	"stripe_event_id":         {},
}

// SafeAttributes strips attributes that could carry payload contents.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedSpanKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// SafeError returns an error safe to attach to a span. Raw webhook bodies
// must not leak into trace storage, so only a generic marker survives.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New("request error")
}
