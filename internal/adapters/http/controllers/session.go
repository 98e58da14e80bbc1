package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/adapters/http/handlers"
	"github.com/rafaelleal24/storefront/internal/core/service"
)

type SessionController struct {
	cartService *service.CartService
}

type SessionResponse struct {
	SessionID string       `json:"session_id"`
	StartedAt time.Time    `json:"started_at"`
	Cart      CartResponse `json:"cart"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewSessionController(cartService *service.CartService) *SessionController {
	return &SessionController{cartService: cartService}
}

// StartSession godoc
// @Summary     Start a shopping session
// @Description Creates a session holding an empty cart. The session expires after the configured TTL without writes.
// @Tags        sessions
// @Produce     json
// @Success     201 {object} SessionResponse
// @Failure     409 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /api/v1/sessions [post]
func (sc *SessionController) StartSession(c *gin.Context) {
	session, err := sc.cartService.StartSession(c.Request.Context())
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: string(session.ID),
		StartedAt: session.StartedAt,
		Cart:      NewCartResponse(session),
	})
}

// EndSession godoc
// @Summary     End a shopping session
// @Description Discards the session and its cart
// @Tags        sessions
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /api/v1/sessions/{id} [delete]
func (sc *SessionController) EndSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	if err := sc.cartService.EndSession(c.Request.Context(), sessionID); err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Session ended"})
}
