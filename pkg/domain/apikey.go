package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApiKey is a hashed credential scoped to one Partner. The raw key is
// shown to the partner exactly once, at creation; only its hashes
// (KeyHash and VerifyHash) are persisted.
type ApiKey struct {
	ID uuid.UUID
	PartnerID uuid.UUID
	// KeyHash is the fast deterministic digest used to index and cache
	// this key (crypto.KeyHasher.LookupHash).
	KeyHash string
	// VerifyHash is the argon2id salted hash checked once KeyHash has
	// located the candidate row, per §4.1's memory-hard verification
	// requirement (crypto.KeyHasher.Hash/Verify).
	VerifyHash  string
	Permissions []string
	Active      bool
	ExpiresAt   *time.Time
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}

// IsValid reports whether the key itself (independent of its owning
// partner) may still be used.
func (k ApiKey) IsValid(now time.Time) bool {
	if !k.Active {
		return false
	}
	if k.ExpiresAt != nil && now.After(*k.ExpiresAt) {
		return false
	}
	return true
}

// HasPermission reports whether required is covered by the key's
// permission set. Matching honors the wildcard forms named in §4.3 step
// 6: "*" grants everything, "wallet:*" grants any "wallet:" permission,
// and an exact match grants itself.
func (k ApiKey) HasPermission(required string) bool {
	for _, p := range k.Permissions {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ":*") && strings.HasPrefix(required, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

// ShouldBumpLastUsed reports whether enough time has passed since the
// last recorded use to write a new last-used-at, per §4.3 step 7's
// bounded write-volume cap.
func (k ApiKey) ShouldBumpLastUsed(now time.Time, interval time.Duration) bool {
	if k.LastUsedAt == nil {
		return true
	}
	return now.Sub(*k.LastUsedAt) >= interval
}
