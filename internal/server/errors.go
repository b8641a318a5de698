package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/harborlane/paysync/internal/checkout/domain"
	"github.com/harborlane/paysync/internal/stripeclient"
	webhookdomain "github.com/harborlane/paysync/internal/webhook/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

var errInvalidRequest = errors.New("invalid_request")

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	// A missing signing secret is an operator fault, never the caller's.
	case errors.Is(err, webhookdomain.ErrMissingSecret),
		errors.Is(err, stripeclient.ErrMissingAPIKey):
		return http.StatusInternalServerError, errorPayload{
			Type:    "configuration_error",
			Message: "service misconfigured",
		}

	case errors.Is(err, webhookdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_signature",
			Message: "webhook signature verification failed",
		}

	case errors.Is(err, webhookdomain.ErrMalformedPayload):
		return http.StatusBadRequest, errorPayload{
			Type:    "malformed_payload",
			Message: "webhook payload could not be parsed",
		}

	case errors.Is(err, checkoutdomain.ErrPriceNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "price not found",
		}

	case errors.Is(err, checkoutdomain.ErrInvalidMode),
		errors.Is(err, checkoutdomain.ErrInvalidPrice),
		errors.Is(err, checkoutdomain.ErrModeMismatch),
		errors.Is(err, checkoutdomain.ErrRedirectNotAllowed),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
