// Пакет service — бизнес-логика каталога медиатеки.
// CacheService — LRU-кэш носителей с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediateka/internal/domain/media"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mc_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш носителей.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mc_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша носителей.",
	})
)

// CacheService — LRU-кэш носителей с автоматическим TTL.
// Каждый экземпляр сервиса имеет собственный in-memory кэш (per-instance, stateless архитектура).
type CacheService struct {
	cache *expirable.LRU[string, media.Media]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, media.Media](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает носитель из кэша по id.
// Возвращает (носитель, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(id string) (media.Media, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет носитель в кэше.
func (c *CacheService) Set(id string, m media.Media) {
	c.cache.Add(id, m)
}

// Delete удаляет носитель из кэша (инвалидация при изменении или удалении).
func (c *CacheService) Delete(id string) {
	c.cache.Remove(id)
}
