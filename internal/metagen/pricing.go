package metagen

import (
	"context"
	"sync"
	"time"

	"github.com/kitaplan/kitaplan-backend/internal/gateway"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

// PricingLister is the slice of the gateway the cache needs.
type PricingLister interface {
	ListModelPricing(ctx context.Context) ([]gateway.ModelPrice, error)
}

// PricingCache holds per-model token prices for up to a TTL. One refresh
// repopulates every entry. It is the only state shared across concurrent
// requests.
//
// Refresh policy: callers that find the cache stale serialize on the write
// lock, so exactly one upstream fetch runs; the remaining callers block
// until it completes and then read the refreshed entries. When a refresh
// fails, the last successfully fetched entries keep serving.
type PricingCache struct {
	lister PricingLister
	ttl    time.Duration
	log    *logger.Logger

	// now is a test seam.
	now func() time.Time

	mu        sync.RWMutex
	entries   map[string]PricingEntry
	fetchedAt time.Time
}

func NewPricingCache(lister PricingLister, ttl time.Duration, baseLog *logger.Logger) *PricingCache {
	return &PricingCache{
		lister:  lister,
		ttl:     ttl,
		log:     baseLog.With("component", "pricing_cache"),
		now:     time.Now,
		entries: map[string]PricingEntry{},
	}
}

// PriceFor returns the cached entry for model. The whole cache is refreshed
// first when it is stale or has never been fetched. An entry absent from a
// fresh cache also counts as a miss and triggers at most one refresh for
// this lookup, so a model newly listed upstream becomes priceable before
// the TTL expires; a model the gateway does not price at all fails every
// lookup.
func (c *PricingCache) PriceFor(ctx context.Context, model string) (PricingEntry, error) {
	c.mu.RLock()
	if c.fresh() {
		if entry, ok := c.entries[model]; ok {
			c.mu.RUnlock()
			return entry, nil
		}
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent caller may have refreshed while we waited for the lock.
	if entry, ok := c.entries[model]; ok && c.fresh() {
		return entry, nil
	}

	if err := c.refreshLocked(ctx); err != nil {
		if entry, ok := c.entries[model]; ok {
			c.log.Warn("pricing refresh failed, serving last known entry",
				"model", model, "fetched_at", entry.FetchedAt, "error", err)
			return entry, nil
		}
		return PricingEntry{}, newError(KindPricingUnavailable, err)
	}

	entry, ok := c.entries[model]
	if !ok {
		return PricingEntry{}, errorf(KindPricingUnavailable, "model %q not priced by gateway", model)
	}
	return entry, nil
}

func (c *PricingCache) fresh() bool {
	if c.fetchedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.fetchedAt) <= c.ttl
}

func (c *PricingCache) refreshLocked(ctx context.Context) error {
	prices, err := c.lister.ListModelPricing(ctx)
	if err != nil {
		return err
	}

	fetched := c.now()
	entries := make(map[string]PricingEntry, len(prices))
	for _, p := range prices {
		entries[p.Model] = PricingEntry{
			Model:       p.Model,
			InputPrice:  p.InputPrice,
			OutputPrice: p.OutputPrice,
			FetchedAt:   fetched,
		}
	}

	c.entries = entries
	c.fetchedAt = fetched
	c.log.Debug("pricing cache refreshed", "models", len(entries))
	return nil
}
