package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/funnelmesh/funnelmesh/core"
	"github.com/funnelmesh/funnelmesh/logging"
	"github.com/funnelmesh/funnelmesh/model"
)

// PII heuristics. Messages matching any of these are never written to or
// served from the semantic tier, so one lead's personal data can never leak
// into another lead's cached reply.
var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),  // email
	regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`),                           // phone number
	regexp.MustCompile(`(?i)\b(me llamo|mi nombre es|my name is)\b`),      // name introduction
	regexp.MustCompile(`\b(?i:soy|i am|i'm)\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+`), // "soy Juan"
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var spaces = regexp.MustCompile(`\s+`)

// ContainsPII reports whether text trips any of the exclusion heuristics.
func ContainsPII(text string) bool {
	for _, p := range piiPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Normalize lowercases, strips punctuation and collapses whitespace so
// near-duplicate phrasings of the same question share a fingerprint.
func Normalize(text string) string {
	t := strings.ToLower(text)
	t = nonWord.ReplaceAllString(t, " ")
	t = spaces.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Fingerprint derives the semantic lookup key. Replies depend on live
// context, so the key is scoped by tenant and funnel stage in addition to
// the normalized message text.
//
// The similarity notion is deliberately conservative: exact match on the
// normalized text. An embedding-bucket scheme can replace this function
// once its precision/recall has been validated offline.
func Fingerprint(tenantID string, stage core.Stage, text string) string {
	sum := sha256.Sum256([]byte(tenantID + "\x00" + string(stage) + "\x00" + Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// SemanticCache is the read-through tier that skips the LLM call entirely
// for near-duplicate questions. TTL is short since replies depend on live
// context.
type SemanticCache struct {
	store  Store
	ttl    time.Duration
	logger logging.Logger
}

// SemanticOptions configure the semantic tier.
type SemanticOptions struct {
	TTL    time.Duration
	Logger logging.Logger
}

// NewSemanticCache wraps a Store as the semantic tier.
func NewSemanticCache(store Store, optFns ...func(o *SemanticOptions)) *SemanticCache {
	opts := SemanticOptions{TTL: 5 * time.Minute, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SemanticCache{store: store, ttl: opts.TTL, logger: opts.Logger}
}

// Lookup returns a cached reply for the message, if one exists, is fresh and
// the message carries no PII markers. The returned response is a clone with
// Provider rewritten to the tier name. Store failures degrade to a miss.
func (c *SemanticCache) Lookup(tenantID string, stage core.Stage, message string) (*model.Response, bool) {
	if ContainsPII(message) {
		return nil, false
	}
	key := Fingerprint(tenantID, stage, message)
	entry, found, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("semantic cache unavailable, treating as miss", "error", err)
		return nil, false
	}
	if !found || entry.Response == nil || entry.Expired(time.Now()) {
		return nil, false
	}
	resp := entry.Response.Clone()
	resp.Provider = TierSemantic
	resp.Latency = 0
	return resp, true
}

// Put stores a reply for future near-duplicate messages, with a per-tenant
// TTL (zero falls back to the tier default). Messages with PII markers are
// never written. Failures are logged and dropped: a cache write must not
// fail the request it trails.
func (c *SemanticCache) Put(tenantID string, stage core.Stage, message string, resp *model.Response, ttl time.Duration) {
	if resp == nil || ContainsPII(message) {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	key := Fingerprint(tenantID, stage, message)
	entry := &Entry{
		Fingerprint: key,
		Response:    resp.Clone(),
		CreatedAt:   time.Now(),
		TTL:         ttl,
	}
	if err := c.store.Set(key, entry); err != nil {
		c.logger.Warn("semantic cache write failed", "error", core.WrapOp("cache.put", err))
	}
}
