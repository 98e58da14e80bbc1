package domain

import (
	"fmt"
	"strings"
)

// Catalog is the fixed product list. It is built once and never mutated.
type Catalog struct {
	products []Product
	byID     map[ProductID]int
}

func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[ProductID]int, len(products)),
	}
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		c.products[i] = p
		c.byID[p.ID] = i
	}
	return c, nil
}

// ListAll returns a copy of the products in seed order.
func (c *Catalog) ListAll() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Search returns the products whose "name description" contains query,
// case-insensitively. A blank query returns the whole catalog.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.ListAll()
	}

	out := make([]Product, 0, len(c.products))
	for i := range c.products {
		if strings.Contains(c.products[i].searchText(), q) {
			out = append(out, c.products[i])
		}
	}
	return out
}

func (c *Catalog) Get(id ProductID) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) Len() int {
	return len(c.products)
}
