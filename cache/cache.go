// Package cache implements the two response-cache tiers sitting in front of
// the provider router: an exact-key tier for compiled instruction blocks and
// a semantic tier that can short-circuit the LLM call for near-duplicate
// inbound messages. Both tiers are best-effort: any store failure degrades
// to a miss, caching is never allowed to fail a request.
package cache

import (
	"time"

	"github.com/funnelmesh/funnelmesh/model"
)

// Tier names reported in Response.Provider when a reply is served from
// cache instead of a live provider.
const (
	TierSemantic = "semantic-cache"
	TierPrompt   = "prompt-cache"
)

// Entry is a stored response with its fingerprint and lifetime. Expired
// entries are treated as misses and lazily evicted by the backing store.
type Entry struct {
	Fingerprint string
	Response    *model.Response
	CreatedAt   time.Time
	TTL         time.Duration
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.CreatedAt.Add(e.TTL))
}

// Store is the minimal backend contract for the semantic tier. Errors from
// implementations are swallowed by callers and downgraded to misses.
type Store interface {
	Get(key string) (*Entry, bool, error)
	Set(key string, entry *Entry) error
}
