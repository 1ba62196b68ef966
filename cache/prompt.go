package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PromptCache is the exact-key tier: it memoizes compiled system instruction
// blocks per (tenant, template) so large, rarely-changing instruction text is
// not re-rendered on every turn. Entries live for hours; any template change
// yields a new key.
type PromptCache struct {
	lru *expirable.LRU[string, promptEntry]
}

type promptEntry struct {
	block      string
	compiledAt time.Time
}

// PromptOptions configure the prompt cache.
type PromptOptions struct {
	Size int
	// TTL is the tier-wide upper bound on entry lifetime; tenants may shorten
	// it per call via GetOrCompile.
	TTL time.Duration
}

// NewPromptCache constructs the exact-key tier.
func NewPromptCache(optFns ...func(o *PromptOptions)) *PromptCache {
	opts := PromptOptions{Size: 512, TTL: 6 * time.Hour}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PromptCache{lru: expirable.NewLRU[string, promptEntry](opts.Size, nil, opts.TTL)}
}

// Key derives the exact cache key from the tenant id and the static portion
// of the instruction template.
func Key(tenantID, staticTemplate string) string {
	sum := sha256.Sum256([]byte(tenantID + "\x00" + staticTemplate))
	return hex.EncodeToString(sum[:])
}

// GetOrCompile returns the cached compiled instruction block, invoking
// compile on a miss and storing the result. A positive ttl shortens the
// entry's lifetime below the tier-wide bound for this tenant; entries older
// than it are recompiled. A compile failure is returned as-is and nothing is
// cached.
func (c *PromptCache) GetOrCompile(tenantID, staticTemplate string, ttl time.Duration, compile func() (string, error)) (string, error) {
	key := Key(tenantID, staticTemplate)
	if entry, ok := c.lru.Get(key); ok {
		if ttl <= 0 || time.Since(entry.compiledAt) < ttl {
			return entry.block, nil
		}
	}
	block, err := compile()
	if err != nil {
		return "", err
	}
	c.lru.Add(key, promptEntry{block: block, compiledAt: time.Now()})
	return block, nil
}

// Len reports the number of live entries, for tests and metrics.
func (c *PromptCache) Len() int { return c.lru.Len() }
