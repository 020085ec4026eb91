package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/db"
	"github.com/kailas-cloud/facilityfinder/internal/domain/facility"
	"github.com/kailas-cloud/facilityfinder/internal/domain/search/template"
)

// DefaultKeyPrefix namespaces every cache key.
const DefaultKeyPrefix = "facilityfinder:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps sanitized result sets in a key-value store for a fixed TTL.
// Store failures degrade to a miss; they never fail a search.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{
		store:      s,
		prefix:     prefix + "search:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached records for a template and its parameters.
func (c *Cache) Get(ctx context.Context, t template.Template, p template.Params) ([]facility.Record, bool) {
	key := c.key(t, p)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached results", zap.String("key", key), zap.Error(err))
		}
		c.inc("miss")
		return nil, false
	}

	var recs []facility.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		c.logger.Warn("Failed to parse cached results", zap.String("key", key), zap.Error(err))
		c.inc("miss")
		return nil, false
	}
	if recs == nil {
		recs = []facility.Record{}
	}

	c.inc("hit")
	return recs, true
}

// Put stores records under the key of a template and its parameters.
func (c *Cache) Put(ctx context.Context, t template.Template, p template.Params, recs []facility.Record) {
	key := c.key(t, p)

	data, err := json.Marshal(recs)
	if err != nil {
		c.logger.Warn("Failed to encode results for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache results", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// key hashes only the parameters the template binds, so equal queries share an entry.
func (c *Cache) key(t template.Template, p template.Params) string {
	parts := []string{string(t)}
	if t.Spatial() {
		parts = append(parts,
			strconv.FormatFloat(p.Latitude, 'g', -1, 64),
			strconv.FormatFloat(p.Longitude, 'g', -1, 64),
			strconv.FormatFloat(p.Radius, 'g', -1, 64),
		)
	}
	if t.Ranked() {
		parts = append(parts, p.Keyword)
	}
	parts = append(parts, strconv.Itoa(p.MaxResults))

	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return c.prefix + hex.EncodeToString(h[:])
}
