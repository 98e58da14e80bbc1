package domain

import (
	"fmt"
	"strings"
)

type ProductID int

func (id ProductID) IsValid() bool {
	return id > 0
}

type Product struct {
	ID          ProductID
	Name        string
	Description string
	Price       Amount
	ImageRef    string
}

func NewProduct(id ProductID, name, description string, price Amount, imageRef string) (*Product, error) {
	p := &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		ImageRef:    imageRef,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	if !p.ID.IsValid() {
		return fmt.Errorf("product id must be positive, got %d", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %d: name must not be empty", p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %d: price must not be negative", p.ID)
	}
	return nil
}

func (p *Product) searchText() string {
	return strings.ToLower(p.Name + " " + p.Description)
}
