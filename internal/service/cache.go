// cache.go — LRU-кэш объектов (геозон) с TTL перед репозиторием.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/repository"
)

// Prometheus-метрики кэша.
var (
	siteCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ga_site_cache_hits_total",
		Help: "Общее количество попаданий в кэш объектов.",
	})
	siteCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ga_site_cache_misses_total",
		Help: "Общее количество промахов кэша объектов.",
	})
)

// SiteCache — кэш объектов по ID. Промах загружает объект из репозитория.
// Изменения объектов инвалидируют запись через Invalidate.
type SiteCache struct {
	repo  repository.LocationRepository
	cache *expirable.LRU[string, model.Location]
}

// NewSiteCache создаёт кэш на maxSize записей с временем жизни ttl.
func NewSiteCache(repo repository.LocationRepository, maxSize int, ttl time.Duration) *SiteCache {
	return &SiteCache{
		repo:  repo,
		cache: expirable.NewLRU[string, model.Location](maxSize, nil, ttl),
	}
}

// Get возвращает копию объекта. Отсутствующий объект — repository.ErrNotFound.
func (c *SiteCache) Get(ctx context.Context, id string) (*model.Location, error) {
	if loc, ok := c.cache.Get(id); ok {
		siteCacheHitsTotal.Inc()
		return &loc, nil
	}
	siteCacheMissesTotal.Inc()

	loc, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *loc)
	return loc, nil
}

// Invalidate удаляет объект из кэша.
func (c *SiteCache) Invalidate(id string) {
	c.cache.Remove(id)
}

// Len — количество записей в кэше.
func (c *SiteCache) Len() int {
	return c.cache.Len()
}
