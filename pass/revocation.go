package pass

import (
	"sync"
	"time"
)

// RevocationList is the extension point for server-side entitlement
// tracking. Claims are recorded when minted; the access check refuses
// purchases that have been revoked even if the token itself is still valid.
type RevocationList interface {
	Record(purchaseID string, claim AccessClaim) error
	Revoke(purchaseID string) error
	IsRevoked(purchaseID string) bool
	Cleanup() // Remove expired entries
}

type revocationEntry struct {
	claim   AccessClaim
	revoked bool
}

// InMemoryRevocationList is a process-local RevocationList. Entries vanish on
// restart, so a revocation only lasts as long as the process.
type InMemoryRevocationList struct {
	entries map[string]revocationEntry
	nowFunc func() time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		entries: make(map[string]revocationEntry),
		nowFunc: time.Now,
	}
}

func (l *InMemoryRevocationList) Record(purchaseID string, claim AccessClaim) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.entries[purchaseID]
	entry.claim = claim
	l.entries[purchaseID] = entry
	return nil
}

func (l *InMemoryRevocationList) Revoke(purchaseID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.entries[purchaseID]
	entry.revoked = true
	l.entries[purchaseID] = entry
	return nil
}

func (l *InMemoryRevocationList) IsRevoked(purchaseID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[purchaseID].revoked
}

// Cleanup drops entries whose claim has expired; a revoked purchase that was
// never recorded is kept until it is recorded.
func (l *InMemoryRevocationList) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFunc()
	for purchaseID, entry := range l.entries {
		if entry.claim.ExpiresAt != 0 && entry.claim.ExpiredAt(now) {
			delete(l.entries, purchaseID)
		}
	}
}

// Len returns the number of tracked purchases.
func (l *InMemoryRevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
