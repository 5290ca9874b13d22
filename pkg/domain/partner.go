package domain

import (
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PartnerStatus tracks a Partner's lifecycle. Transitions are monotonic
// toward Terminated; nothing moves backward out of it.
type PartnerStatus string

const (
	PartnerActive      PartnerStatus = "active"
	PartnerInactive    PartnerStatus = "inactive"
	PartnerSuspended   PartnerStatus = "suspended"
	PartnerTerminated  PartnerStatus = "terminated"
)

// Partner is a business client of the platform. Code is immutable once
// assigned; callers must not attempt to change it after creation.
type Partner struct {
	ID          uuid.UUID
	Code        string
	Status      PartnerStatus
	AllowedCIDR []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive reports whether the partner may authenticate at all.
func (p Partner) IsActive() bool {
	return p.Status == PartnerActive
}

// IPAllowed reports whether ip satisfies the partner's allowlist. An
// empty allowlist permits any address, per §4.3 step 5. Entries are
// either bare IPs (treated as /32 or /128) or CIDR ranges, matching the
// original ip_network(..., strict=False) behavior.
func (p Partner) IPAllowed(ip net.IP) bool {
	if len(p.AllowedCIDR) == 0 {
		return true
	}
	for _, entry := range p.AllowedCIDR {
		if !strings.Contains(entry, "/") {
			if candidate := net.ParseIP(entry); candidate != nil && candidate.Equal(ip) {
				return true
			}
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
