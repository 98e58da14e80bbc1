package dto

import "github.com/rafaelleal24/storefront/internal/core/domain"

type AddItemRequest struct {
	ProductID domain.ProductID `json:"product_id" binding:"required,gt=0"`
}
