package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

//go:embed seed/catalog.json
var seedCatalog []byte

type seedProduct struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// ParseCatalog builds a Catalog from a JSON array of seed products.
func ParseCatalog(data []byte) (*Catalog, error) {
	var seeds []seedProduct
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed: %w", err)
	}

	products := make([]Product, 0, len(seeds))
	for _, s := range seeds {
		p, err := NewProduct(ProductID(s.ID), s.Name, s.Description, NewAmountFromDecimal(s.Price), s.Image)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog seed: %w", err)
		}
		products = append(products, *p)
	}

	return NewCatalog(products)
}

// DefaultCatalog returns the compiled-in demo catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(seedCatalog)
}
