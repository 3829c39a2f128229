package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	imageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bnpl_image_cache_hits_total",
		Help: "Total number of product image cache hits",
	})

	imageCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnpl_image_cache_misses_total",
		Help: "Total number of product image cache misses",
	}, []string{"reason"}) // expired, not_found, error
)

type cachedImage struct {
	url       string
	expiresAt time.Time
}

// ImageCache caches product image URLs in front of a slower lookup.
// Lookup errors are never cached.
type ImageCache struct {
	next   ports.ProductImageLookup
	ttl    time.Duration
	logger ports.Logger
	now    func() time.Time

	entries sync.Map // map[int64]cachedImage
}

// NewImageCache wraps next with a TTL cache
func NewImageCache(next ports.ProductImageLookup, ttl time.Duration, logger ports.Logger) *ImageCache {
	return &ImageCache{
		next:   next,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// GetImageURL implements ports.ProductImageLookup
func (c *ImageCache) GetImageURL(ctx context.Context, productID int64) (string, error) {
	if val, ok := c.entries.Load(productID); ok {
		entry := val.(cachedImage)
		if c.now().Before(entry.expiresAt) {
			imageCacheHits.Inc()
			return entry.url, nil
		}
		imageCacheMisses.WithLabelValues("expired").Inc()
		c.entries.Delete(productID)
	} else {
		imageCacheMisses.WithLabelValues("not_found").Inc()
	}

	url, err := c.next.GetImageURL(ctx, productID)
	if err != nil {
		imageCacheMisses.WithLabelValues("error").Inc()
		return "", err
	}

	c.entries.Store(productID, cachedImage{url: url, expiresAt: c.now().Add(c.ttl)})
	c.logger.Debug("product image cached",
		ports.Int64("product_id", productID),
		ports.String("url", url))
	return url, nil
}

// Invalidate drops a product from the cache
func (c *ImageCache) Invalidate(productID int64) {
	c.entries.Delete(productID)
}
