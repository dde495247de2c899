// Package cache is the projection read-through cache: JSON-encoded query
// results stored under per-family keys, with a per-member index set so a
// write can drop exactly the member's cached reads and nothing else.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// Clock abstracts time.Now for expiry tests.
type Clock func() time.Time

// Key addresses one cached query result. The string form is
// proj:{family}:{tenant}:{member}:{rangeHash} where rangeHash is a 64-bit
// FNV-1a digest of the query parameters, so two queries over different
// windows never collide.
type Key struct {
	family   string
	tenantID id.TenantID
	memberID id.MemberID
	hash     uint64
}

// NewKey builds the cache key for a family and its query parameters.
func NewKey(family string, tenantID id.TenantID, memberID id.MemberID, params ...string) Key {
	h := fnv.New64a()
	for _, p := range params {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return Key{family: family, tenantID: tenantID, memberID: memberID, hash: h.Sum64()}
}

func (k Key) String() string {
	return fmt.Sprintf("proj:%s:%s:%s:%016x", k.family, k.tenantID, k.memberID, k.hash)
}

func (k Key) index() string {
	return memberIndex(k.tenantID, k.memberID)
}

func memberIndex(tenantID id.TenantID, memberID id.MemberID) string {
	return fmt.Sprintf("proj:idx:%s:%s", tenantID, memberID)
}

// Cache stores projection query results. Get decodes the cached JSON into
// dest and reports a miss as sentinel.ErrNotFound. Set registers the key in
// the member's index so InvalidateMember can drop every cached read for that
// member in one sweep.
type Cache interface {
	Get(ctx context.Context, key Key, dest any) error
	Set(ctx context.Context, key Key, value any, ttl time.Duration) error
	InvalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) error
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
