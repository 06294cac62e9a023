package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CatalogService fronts the product store with a read-through cache. Catalog
// writes invalidate the cached product so cart totals pick up price changes
// on the very next read.
type CatalogService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCatalogService(repo repository.ProductRepository, cache cache.ProductCache) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	// Use singleflight so concurrent misses for the same product hit the
	// database once.
	v, err, _ := s.sfg.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("product cache get failed", "product_id", id, "err", err)
		}

		product, errGet := s.repo.GetByID(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), product); errSet != nil {
				slog.Warn("product cache set failed", "product_id", id, "err", errSet)
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, name string, price float64, description *string, stock int64) (*domain.Product, error) {
	return s.repo.Create(ctx, name, price, description, stock)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, changes repository.ProductChangeSet) (*domain.Product, error) {
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, err
	}

	s.invalidate(id)
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(id)
	return nil
}

func (s *CatalogService) invalidate(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, id); err != nil {
		slog.Warn("product cache invalidate failed", "product_id", id, "err", err)
	}
}
