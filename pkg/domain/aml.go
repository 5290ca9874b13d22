package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel buckets a continuous risk score for reporting purposes.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LevelFor buckets score into a RiskLevel using the same cut points as
// alert severity (§4.6.3).
func LevelFor(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskFactor is one evaluated detector from §4.6.1: a score contribution
// plus whether it fired.
type RiskFactor struct {
	Name      string  `json:"name"`
	Detected  bool    `json:"detected"`
	Score     float64 `json:"score"`
	Detail    string  `json:"detail,omitempty"`
}

// AMLRiskProfile is the single per-(player,partner) risk record, updated
// in place by a weighted average (§4.6.2).
type AMLRiskProfile struct {
	PlayerID         string
	PartnerID        uuid.UUID
	RiskScore        float64
	RiskLevel        RiskLevel
	Deposit7dSum     float64
	Deposit7dCount   int
	Withdraw7dSum    float64
	Withdraw7dCount  int
	Deposit30dSum    float64
	Deposit30dCount  int
	Withdraw30dSum   float64
	Withdraw30dCount int
	LastFactors      []RiskFactor
	LastCalculatedAt time.Time
}

// ApplyAnalysis folds a new analysis score into the running profile
// using the canonical 0.7/0.3 weighted average (§4.6.2).
func (p *AMLRiskProfile) ApplyAnalysis(currentScore float64, factors []RiskFactor, at time.Time) {
	p.RiskScore = clamp(0.7*p.RiskScore + 0.3*currentScore)
	p.RiskLevel = LevelFor(p.RiskScore)
	p.LastFactors = factors
	p.LastCalculatedAt = at
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// AlertSeverity mirrors RiskLevel's cut points but is attached to a
// specific alert rather than the rolling profile.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus follows the investigation state machine referenced in §3.
type AlertStatus string

const (
	AlertOpen            AlertStatus = "open"
	AlertInvestigating   AlertStatus = "investigating"
	AlertPendingReport   AlertStatus = "pending-report"
	AlertReported        AlertStatus = "reported"
	AlertClosedFalseHit  AlertStatus = "closed-false-positive"
	AlertClosedConfirmed AlertStatus = "closed-confirmed"
)

// AlertType names why an alert was raised.
type AlertType string

const (
	AlertThreshold AlertType = "threshold"
	AlertPattern   AlertType = "pattern"
	AlertBlacklist AlertType = "blacklist"
	AlertManual    AlertType = "manual"
)

// AMLAlert is emitted when analysis crosses one of §4.6.3's thresholds.
type AMLAlert struct {
	ID              uuid.UUID
	PlayerID        string
	PartnerID       uuid.UUID
	TransactionID   *uuid.UUID
	Type            AlertType
	Severity        AlertSeverity
	Status          AlertStatus
	ScoreAtAlert    float64
	FactorsAtAlert  []RiskFactor
	ReportRequired  bool
	CreatedAt       time.Time
}

// SeverityFor maps a score to the severity an alert should carry,
// matching the same cut points used for the profile's RiskLevel.
func SeverityFor(score float64) AlertSeverity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
