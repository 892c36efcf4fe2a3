package metagen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kitaplan/kitaplan-backend/internal/gateway"
)

func testPrices() []gateway.ModelPrice {
	return []gateway.ModelPrice{
		{Model: "model-a", InputPrice: 0.000001, OutputPrice: 0.000002},
		{Model: "model-b", InputPrice: 0.000003, OutputPrice: 0.000004},
	}
}

func TestPriceForIdempotentWithinTTL(t *testing.T) {
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Hour, testLogger(t))

	e1, err := c.PriceFor(context.Background(), "model-a")
	if err != nil {
		t.Fatalf("PriceFor: %v", err)
	}
	e2, err := c.PriceFor(context.Background(), "model-a")
	if err != nil {
		t.Fatalf("PriceFor: %v", err)
	}
	if e1 != e2 {
		t.Fatalf("entries differ: %+v vs %+v", e1, e2)
	}
	if n := atomic.LoadInt32(&gw.pricingCalls); n != 1 {
		t.Fatalf("pricing fetches=%d, want 1", n)
	}
}

func TestPriceForRefreshRepopulatesAllEntries(t *testing.T) {
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Hour, testLogger(t))

	if _, err := c.PriceFor(context.Background(), "model-a"); err != nil {
		t.Fatalf("PriceFor model-a: %v", err)
	}
	// model-b was populated by the same fetch.
	if _, err := c.PriceFor(context.Background(), "model-b"); err != nil {
		t.Fatalf("PriceFor model-b: %v", err)
	}
	if n := atomic.LoadInt32(&gw.pricingCalls); n != 1 {
		t.Fatalf("pricing fetches=%d, want 1", n)
	}
}

func TestPriceForRefetchesAfterTTL(t *testing.T) {
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Minute, testLogger(t))

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if _, err := c.PriceFor(context.Background(), "model-a"); err != nil {
		t.Fatalf("PriceFor: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.PriceFor(context.Background(), "model-a"); err != nil {
		t.Fatalf("PriceFor: %v", err)
	}
	if n := atomic.LoadInt32(&gw.pricingCalls); n != 2 {
		t.Fatalf("pricing fetches=%d, want 2", n)
	}
}

func TestPriceForSingleRefreshUnderConcurrency(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		<-release
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Hour, testLogger(t))

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.PriceFor(context.Background(), "model-a")
			errs <- err
		}()
	}

	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("PriceFor: %v", err)
		}
	}
	if n := atomic.LoadInt32(&gw.pricingCalls); n != 1 {
		t.Fatalf("pricing fetches=%d, want exactly 1", n)
	}
}

func TestPriceForStaleFallbackOnRefreshFailure(t *testing.T) {
	var fail atomic.Bool
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		if fail.Load() {
			return nil, errors.New("pricing endpoint down")
		}
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Minute, testLogger(t))

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	e1, err := c.PriceFor(context.Background(), "model-a")
	if err != nil {
		t.Fatalf("PriceFor: %v", err)
	}

	fail.Store(true)
	now = now.Add(2 * time.Minute)

	e2, err := c.PriceFor(context.Background(), "model-a")
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if e2 != e1 {
		t.Fatalf("expected last known entry, got %+v", e2)
	}
}

func TestPriceForUnavailableWithoutHistory(t *testing.T) {
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		return nil, errors.New("pricing endpoint down")
	}}
	c := NewPricingCache(gw, time.Minute, testLogger(t))

	_, err := c.PriceFor(context.Background(), "model-a")
	if KindOf(err) != KindPricingUnavailable {
		t.Fatalf("kind=%q, want %q", KindOf(err), KindPricingUnavailable)
	}
}

func TestPriceForUnknownModel(t *testing.T) {
	gw := &fakeGateway{pricingFn: func(ctx context.Context) ([]gateway.ModelPrice, error) {
		return testPrices(), nil
	}}
	c := NewPricingCache(gw, time.Hour, testLogger(t))

	_, err := c.PriceFor(context.Background(), "model-z")
	if KindOf(err) != KindPricingUnavailable {
		t.Fatalf("kind=%q, want %q", KindOf(err), KindPricingUnavailable)
	}
}

func TestPriceForRefreshesOnFreshMiss(t *testing.T) {
	gw := &fakeGateway{}
	gw.pricingFn = func(ctx context.Context) ([]gateway.ModelPrice, error) {
		prices := testPrices()
		if atomic.LoadInt32(&gw.pricingCalls) > 1 {
			prices = append(prices, gateway.ModelPrice{Model: "model-new", InputPrice: 0.000005, OutputPrice: 0.000006})
		}
		return prices, nil
	}
	c := NewPricingCache(gw, time.Hour, testLogger(t))

	if _, err := c.PriceFor(context.Background(), "model-a"); err != nil {
		t.Fatalf("PriceFor model-a: %v", err)
	}

	// model-new got listed upstream after the first fetch; a fresh cache
	// missing it must refetch instead of waiting out the TTL.
	entry, err := c.PriceFor(context.Background(), "model-new")
	if err != nil {
		t.Fatalf("PriceFor model-new: %v", err)
	}
	if entry.InputPrice != 0.000005 {
		t.Fatalf("entry=%+v", entry)
	}
	if n := atomic.LoadInt32(&gw.pricingCalls); n != 2 {
		t.Fatalf("pricing fetches=%d, want 2", n)
	}
}
