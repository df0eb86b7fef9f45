package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"krishi-backend/internal/cache"
	"krishi-backend/internal/models"
	"krishi-backend/internal/repositories"
	"krishi-backend/internal/storage"
)

const productListCacheTTL = 5 * time.Minute

type ProductService struct {
	Repo    *repositories.ProductRepository
	Storage *storage.Client // nil when R2 is not configured
}

func NewProductService(repo *repositories.ProductRepository, storageClient *storage.Client) *ProductService {
	return &ProductService{Repo: repo, Storage: storageClient}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, errors.New("product name is required")
	}
	if req.Price < 0 {
		return nil, errors.New("price cannot be negative")
	}
	if req.Stock < 0 {
		return nil, errors.New("stock cannot be negative")
	}

	product := &models.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Stock:        req.Stock,
		IsActive:     true,
		DurationFrom: req.DurationFrom,
		DurationTo:   req.DurationTo,
	}

	if req.Image != "" && s.Storage != nil {
		key, url, err := s.Storage.UploadProductImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		product.ImageKey = key
		product.ImageURL = url
	}

	if err := s.Repo.Create(ctx, product); err != nil {
		return nil, err
	}

	cache.InvalidateProductCaches(ctx)
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	return s.Repo.Get(ctx, id)
}

// ListProducts serves the storefront catalog. The unfiltered active
// listing is cached since it backs the public landing page.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	cacheable := filter.Category == "" && filter.Search == "" && filter.Active != nil && *filter.Active

	if cacheable {
		if data, ok := cache.GetCached(ctx, cache.ProductListKey); ok {
			var products []*models.Product
			if err := json.Unmarshal(data, &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if data, err := json.Marshal(products); err == nil {
			cache.SetCached(ctx, cache.ProductListKey, data, productListCacheTTL)
		}
	}

	return products, nil
}

func (s *ProductService) SearchProducts(ctx context.Context, term string) ([]*models.Product, error) {
	if term == "" {
		return nil, errors.New("search term is required")
	}
	return s.Repo.Search(ctx, term, 10)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("product name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, errors.New("price cannot be negative")
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, errors.New("stock cannot be negative")
		}
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.DurationFrom != nil {
		product.DurationFrom = *req.DurationFrom
	}
	if req.DurationTo != nil {
		product.DurationTo = *req.DurationTo
	}

	if req.Image != "" && s.Storage != nil {
		oldKey := product.ImageKey
		key, url, err := s.Storage.UploadProductImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		product.ImageKey = key
		product.ImageURL = url
		if oldKey != "" {
			if err := s.Storage.DeleteObject(ctx, oldKey); err != nil {
				log.Printf("[Product] failed to delete old image %s: %v", oldKey, err)
			}
		}
	}

	if err := s.Repo.Update(ctx, product); err != nil {
		return nil, err
	}

	cache.InvalidateProductCaches(ctx)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	product, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	if product.ImageKey != "" && s.Storage != nil {
		if err := s.Storage.DeleteObject(ctx, product.ImageKey); err != nil {
			log.Printf("[Product] failed to delete image %s: %v", product.ImageKey, err)
		}
	}

	cache.InvalidateProductCaches(ctx)
	return nil
}
