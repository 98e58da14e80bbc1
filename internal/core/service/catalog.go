package service

import (
	"context"
	"fmt"

	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
)

type CatalogService struct {
	catalog *domain.Catalog
}

func NewCatalogService(catalog *domain.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) ListAll(ctx context.Context) []domain.Product {
	return s.catalog.ListAll()
}

func (s *CatalogService) Search(ctx context.Context, query string) []domain.Product {
	products := s.catalog.Search(query)
	logger.Debug(ctx, "catalog: search", map[string]any{
		"query":   query,
		"matches": len(products),
	})
	return products
}

func (s *CatalogService) GetByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	product, ok := s.catalog.Get(id)
	if !ok {
		return nil, serviceerrors.NewNotFoundError(fmt.Sprintf("product %d not found", id))
	}
	return &product, nil
}
