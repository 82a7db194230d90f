package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/google/uuid"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

// CatalogCache fronts the hospital service catalog with a TTL cache.
// Order intake reads the catalog once per line; prices change rarely
// enough that a short TTL is safe.
type CatalogCache struct {
	inner repository.CatalogRepository
	cache *gocache.Cache
}

func NewCatalogCache(inner repository.CatalogRepository, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CatalogCache) Get(ctx context.Context, id uuid.UUID) (*model.HospitalService, error) {
	key := "svc:" + id.String()
	if cached, found := c.cache.Get(key); found {
		return cached.(*model.HospitalService), nil
	}

	svc, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, svc)
	return svc, nil
}

func (c *CatalogCache) List(ctx context.Context, serviceType model.ServiceType) ([]*model.HospitalService, error) {
	key := "list:" + string(serviceType)
	if cached, found := c.cache.Get(key); found {
		return cached.([]*model.HospitalService), nil
	}

	services, err := c.inner.List(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, services)
	return services, nil
}
