package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleStripeWebhook feeds the exact raw body into the ingestion
// pipeline. No body-parsing middleware may run before signature
// verification.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	ack, err := s.webhookSvc.Ingest(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
