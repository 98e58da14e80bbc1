package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/adapters/http/handlers"
	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/dto"
	"github.com/rafaelleal24/storefront/internal/core/service"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
)

type CartController struct {
	cartService *service.CartService
}

type CartLineResponse struct {
	ProductID        int    `json:"product_id" example:"1"`
	Name             string `json:"name" example:"T-Shirt"`
	Quantity         int    `json:"quantity" example:"2"`
	UnitPrice        int64  `json:"unit_price" example:"2000"`
	UnitPriceDisplay string `json:"unit_price_display" example:"$20.00"`
	Subtotal         int64  `json:"subtotal" example:"4000"`
	SubtotalDisplay  string `json:"subtotal_display" example:"$40.00"`
}

type CartResponse struct {
	SessionID       string             `json:"session_id"`
	Lines           []CartLineResponse `json:"lines"`
	ItemCount       int                `json:"item_count" example:"3"`
	Total           int64              `json:"total" example:"5000"`
	TotalDisplay    string             `json:"total_display" example:"$50.00"`
	CheckoutEnabled bool               `json:"checkout_enabled" example:"true"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type CheckoutResponse struct {
	Accepted bool         `json:"accepted" example:"true"`
	Message  string       `json:"message"`
	Cart     CartResponse `json:"cart"`
}

func NewCartResponse(session *domain.Session) CartResponse {
	lines := make([]CartLineResponse, len(session.Cart.Lines))
	for i, line := range session.Cart.Lines {
		lines[i] = CartLineResponse{
			ProductID:        int(line.ProductID),
			Name:             line.Name,
			Quantity:         line.Quantity,
			UnitPrice:        int64(line.Price),
			UnitPriceDisplay: line.Price.String(),
			Subtotal:         int64(line.Subtotal()),
			SubtotalDisplay:  line.Subtotal().String(),
		}
	}
	total := session.Cart.TotalPrice()
	return CartResponse{
		SessionID:       string(session.ID),
		Lines:           lines,
		ItemCount:       session.Cart.TotalItemCount(),
		Total:           int64(total),
		TotalDisplay:    total.String(),
		CheckoutEnabled: !session.Cart.IsEmpty(),
		UpdatedAt:       session.UpdatedAt,
	}
}

func NewCartController(cartService *service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart godoc
// @Summary     Get cart
// @Description Returns the cart lines in insertion order with item count and total
// @Tags        cart
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} CartResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /api/v1/sessions/{id}/cart [get]
func (cc *CartController) GetCart(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	session, err := cc.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCartResponse(session))
}

// AddItem godoc
// @Summary     Add item to cart
// @Description Adds one unit of a catalog product. Adding a product already in the cart increments its quantity.
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       id              path     string             true  "Session ID"
// @Param       Idempotency-Key header   string             false "Idempotency key"
// @Param       request         body     dto.AddItemRequest true  "Product to add"
// @Success     200             {object} CartResponse
// @Failure     400             {object} handlers.ErrorResponse
// @Failure     404             {object} handlers.ErrorResponse
// @Failure     409             {object} handlers.ErrorResponse
// @Failure     422             {object} handlers.ErrorResponse
// @Failure     429             {object} handlers.ErrorResponse
// @Router      /api/v1/sessions/{id}/cart/items [post]
func (cc *CartController) AddItem(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var request dto.AddItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError(err.Error()).WithCause(err))
		return
	}
	idempotencyKey := c.GetHeader("Idempotency-Key")
	session, err := cc.cartService.AddItem(c.Request.Context(), sessionID, idempotencyKey, &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCartResponse(session))
}

// RemoveItem godoc
// @Summary     Remove item from cart
// @Description Removes the whole line for a product. Removing a product that is not in the cart is a no-op.
// @Tags        cart
// @Produce     json
// @Param       id         path     string true "Session ID"
// @Param       product_id path     int    true "Product ID"
// @Success     200        {object} CartResponse
// @Failure     400        {object} handlers.ErrorResponse
// @Failure     404        {object} handlers.ErrorResponse
// @Failure     429        {object} handlers.ErrorResponse
// @Router      /api/v1/sessions/{id}/cart/items/{product_id} [delete]
func (cc *CartController) RemoveItem(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	productID, err := parseProductID(c.Param("product_id"))
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	session, err := cc.cartService.RemoveItem(c.Request.Context(), sessionID, productID)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCartResponse(session))
}

// Checkout godoc
// @Summary     Checkout
// @Description Placeholder checkout. Refused for an empty cart, otherwise accepted without changing the cart.
// @Tags        cart
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} CheckoutResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     422 {object} handlers.ErrorResponse
// @Router      /api/v1/sessions/{id}/checkout [post]
func (cc *CartController) Checkout(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	result, err := cc.cartService.Checkout(c.Request.Context(), sessionID)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{
		Accepted: result.Accepted,
		Message:  "Checkout is not available in this demo store",
		Cart:     NewCartResponse(result.Session),
	})
}

func sessionIDParam(c *gin.Context) (domain.ID, bool) {
	sessionID := c.Param("id")
	if !domain.ValidateID(sessionID) {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError("Invalid session ID"))
		return "", false
	}
	return domain.ID(sessionID), true
}
