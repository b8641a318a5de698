package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/harborlane/paysync/internal/checkout/domain"
)

func (s *Server) HandleCreateCheckoutSession(c *gin.Context) {
	var req checkoutdomain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	// The website fronting this service authenticates the caller and
	// forwards the user id; absence means a guest checkout.
	if raw := strings.TrimSpace(c.GetHeader("X-User-Id")); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, errInvalidRequest)
			return
		}
		req.UserID = &userID
	}

	session, err := s.checkoutSvc.CreateSession(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *Server) HandleListPrices(c *gin.Context) {
	prices, err := s.priceRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": prices})
}
