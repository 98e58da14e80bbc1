package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/adapters/http/handlers"
	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/service"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
)

type ProductController struct {
	catalogService *service.CatalogService
}

type ProductResponse struct {
	ID           int    `json:"id" example:"1"`
	Name         string `json:"name" example:"T-Shirt"`
	Description  string `json:"description" example:"Comfortable cotton t-shirt"`
	Price        int64  `json:"price" example:"2000"`
	PriceDisplay string `json:"price_display" example:"$20.00"`
	ImageRef     string `json:"image_ref"`
}

func NewProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:           int(product.ID),
		Name:         product.Name,
		Description:  product.Description,
		Price:        int64(product.Price),
		PriceDisplay: product.Price.String(),
		ImageRef:     product.ImageRef,
	}
}

func NewProductController(catalogService *service.CatalogService) *ProductController {
	return &ProductController{catalogService: catalogService}
}

// Search godoc
// @Summary     Search products
// @Description Case-insensitive substring match on name and description. A blank query lists the whole catalog.
// @Tags        products
// @Produce     json
// @Param       q   query    string false "Search text"
// @Success     200 {array}  ProductResponse
// @Router      /api/v1/products [get]
func (pc *ProductController) Search(c *gin.Context) {
	products := pc.catalogService.Search(c.Request.Context(), c.Query("q"))

	response := make([]ProductResponse, len(products))
	for i := range products {
		response[i] = NewProductResponse(&products[i])
	}

	c.JSON(http.StatusOK, response)
}

// GetByID godoc
// @Summary     Get product by ID
// @Tags        products
// @Produce     json
// @Param       id  path     int true "Product ID"
// @Success     200 {object} ProductResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /api/v1/products/{id} [get]
func (pc *ProductController) GetByID(c *gin.Context) {
	id, err := parseProductID(c.Param("id"))
	if err != nil {
		handlers.HandleError(c, err)
		return
	}

	product, err := pc.catalogService.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProductResponse(product))
}

func parseProductID(raw string) (domain.ProductID, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serviceerrors.NewInvalidRequestError("Invalid product ID").WithCause(err)
	}
	if !domain.ProductID(n).IsValid() {
		return 0, serviceerrors.NewInvalidRequestError("Invalid product ID")
	}
	return domain.ProductID(n), nil
}
