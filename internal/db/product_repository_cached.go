package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/cache"
	"github.com/mwaf/smartstock/internal/models"
)

// CachedProductRepository decorates ProductRepository with a Redis read
// cache. Reads serve quotes from cache; every mutation path invalidates.
type CachedProductRepository struct {
	repo  *ProductRepository
	cache *cache.RedisCache
	log   *logrus.Logger
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache, log *logrus.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func allProductsKey() string {
	return "products:all"
}

func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cacheKey := allProductsKey()

	var products []models.Product
	if err := r.cache.Get(ctx, cacheKey, &products); err == nil {
		return products, nil
	}

	products, err := r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		r.log.WithError(err).Warn("failed to cache products")
	}

	return products, nil
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		return &product, nil
	}
	if err != redis.Nil {
		r.log.WithError(err).Warn("cache read failed")
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		r.log.WithError(err).Warn("failed to cache product")
	}

	return p, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Delete(ctx, allProductsKey()); err != nil {
		r.log.WithError(err).Warn("failed to invalidate product list cache")
	}

	return product, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.InvalidateProduct(ctx, id)
	return nil
}

func (r *CachedProductRepository) Restock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	product, err := r.repo.Restock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	r.InvalidateProduct(ctx, id)
	return product, nil
}

func (r *CachedProductRepository) ReduceStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	product, err := r.repo.ReduceStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	r.InvalidateProduct(ctx, id)
	return product, nil
}

func (r *CachedProductRepository) ReduceStockForOrder(ctx context.Context, orderID, productID int64, quantity int) (*models.Product, error) {
	product, err := r.repo.ReduceStockForOrder(ctx, orderID, productID, quantity)
	if err != nil {
		return nil, err
	}

	r.InvalidateProduct(ctx, productID)
	return product, nil
}

// InvalidateProduct drops both the product's own cache entry and the list
// entry.
func (r *CachedProductRepository) InvalidateProduct(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, productKey(id)); err != nil {
		r.log.WithError(err).Warn("failed to invalidate product cache")
	}
	if err := r.cache.Delete(ctx, allProductsKey()); err != nil {
		r.log.WithError(err).Warn("failed to invalidate product list cache")
	}
}
