package pass

import (
	"strings"
	"time"
)

// Scope names the gated resource(s) a pass unlocks.
type Scope string

// AnyPool unlocks every pool.
const AnyPool Scope = "any_pool"

const poolScopeSuffix = "_pool"

// PoolScope returns the scope for a single named pool, or AnyPool when the
// pool is empty.
func PoolScope(pool string) Scope {
	pool = strings.TrimSpace(pool)
	if pool == "" {
		return AnyPool
	}
	return Scope(pool + poolScopeSuffix)
}

// Allows reports whether the scope grants access to the named pool. An empty
// pool asks only whether the pass is valid at all.
func (s Scope) Allows(pool string) bool {
	if pool == "" || s == AnyPool {
		return true
	}
	return s == PoolScope(pool)
}

// AccessClaim is the payload signed into a pass token.
type AccessClaim struct {
	PurchaseID string `json:"pid"`   // Checkout session the pass was bought with
	Scope      Scope  `json:"scope"` // What the pass unlocks
	ExpiresAt  int64  `json:"exp"`   // Milliseconds since the Unix epoch
}

// NewAccessClaim builds a claim that expires the given duration after now.
func NewAccessClaim(purchaseID string, scope Scope, now time.Time, lifetime time.Duration) AccessClaim {
	return AccessClaim{
		PurchaseID: purchaseID,
		Scope:      scope,
		ExpiresAt:  now.Add(lifetime).UnixMilli(),
	}
}

// Expiry returns ExpiresAt as a time.
func (c AccessClaim) Expiry() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// ExpiredAt reports whether the claim is no longer valid at t.
func (c AccessClaim) ExpiredAt(t time.Time) bool {
	return c.ExpiresAt == 0 || t.UnixMilli() > c.ExpiresAt
}

func (c AccessClaim) complete() bool {
	return c.PurchaseID != "" && c.Scope != "" && c.ExpiresAt != 0
}
