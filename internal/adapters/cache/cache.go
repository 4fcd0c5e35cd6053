package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
	"github.com/okian/salarygauge/internal/domain/model"
)

// Default cache configuration constants.
const (
	defaultMaxEntries = 10_000
	counterFactor     = 10
	bufferItems       = 64
	keySeparator      = "\x1f"
)

// Cache stores salary predictions for records already seen. Predictions
// are pure functions of the record, so a hit is always safe to serve.
type Cache interface {
	Get(ctx context.Context, rec model.Record) (float64, bool)
	Put(ctx context.Context, rec model.Record, salary float64)
	// Size returns the number of cached predictions.
	Size() int64
	Close()
}

type entry struct {
	key    string
	salary float64
}

type ristrettoCache struct {
	maxEntries int
	ttl        time.Duration
	store      *ristretto.Cache
}

// New creates a prediction cache with configuration options.
func New(opts ...Option) (Cache, error) {
	c := &ristrettoCache{maxEntries: defaultMaxEntries}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		return nopCache{}, nil
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        int64(c.maxEntries) * counterFactor,
		MaxCost:            int64(c.maxEntries),
		BufferItems:        bufferItems,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	c.store = store
	return c, nil
}

func (c *ristrettoCache) Get(_ context.Context, rec model.Record) (float64, bool) {
	hash, key := Key(rec)
	v, ok := c.store.Get(hash)
	if !ok {
		return 0, false
	}
	e, ok := v.(entry)
	if !ok || e.key != key {
		return 0, false
	}
	return e.salary, true
}

func (c *ristrettoCache) Put(_ context.Context, rec model.Record, salary float64) {
	hash, key := Key(rec)
	e := entry{key: key, salary: salary}
	if c.ttl > 0 {
		c.store.SetWithTTL(hash, e, 1, c.ttl)
	} else {
		c.store.Set(hash, e, 1)
	}
	c.store.Wait()
}

func (c *ristrettoCache) Size() int64 {
	m := c.store.Metrics
	if m == nil {
		return 0
	}
	return int64(m.KeysAdded()) - int64(m.KeysEvicted())
}

func (c *ristrettoCache) Close() { c.store.Close() }

// Key returns the hash and canonical form of a record. Text fields are
// normalized first, so answers differing only in outer whitespace share a key.
func Key(rec model.Record) (uint64, string) {
	rec = rec.Normalized()
	var b strings.Builder
	for i, f := range model.Fields {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		if n, ok := rec.Number(f); ok {
			b.WriteString(strconv.Itoa(n))
			continue
		}
		v, _ := rec.Text(f)
		b.WriteString(v)
	}
	key := b.String()
	return xxhash.Sum64String(key), key
}

type nopCache struct{}

func (nopCache) Get(context.Context, model.Record) (float64, bool) { return 0, false }
func (nopCache) Put(context.Context, model.Record, float64)        {}
func (nopCache) Size() int64                                       { return 0 }
func (nopCache) Close()                                            {}
