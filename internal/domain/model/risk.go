package model

import "time"

// RiskBucket classifies a credential by its whole days remaining until expiry.
type RiskBucket int

const (
	// BucketExpired holds credentials whose expiry has already passed (days < 0).
	BucketExpired RiskBucket = iota
	// BucketCritical holds credentials expiring within 14 days (0 <= days < 14).
	BucketCritical
	// BucketWarning holds credentials expiring within 30 days (14 <= days < 30).
	BucketWarning
)

// Bucket boundaries in whole days.
const (
	CriticalDays = 14
	WarningDays  = 30
)

const day = 24 * time.Hour

// String returns a human-readable name for the bucket.
func (b RiskBucket) String() string {
	switch b {
	case BucketExpired:
		return "expired"
	case BucketCritical:
		return "critical"
	case BucketWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// DaysRemaining returns floor((expiresAt - now) / 24h). A credential that
// expired one second ago has -1 days remaining.
func DaysRemaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	days := d / day
	if d < 0 && d%day != 0 {
		days--
	}
	return int(days)
}

// BucketFor maps days remaining to a risk bucket. The second return value is
// false when the credential is far enough from expiry to be left out of the report.
func BucketFor(days int) (RiskBucket, bool) {
	switch {
	case days < 0:
		return BucketExpired, true
	case days < CriticalDays:
		return BucketCritical, true
	case days < WarningDays:
		return BucketWarning, true
	default:
		return 0, false
	}
}

// RiskReport is the transient result of one classification run. It is never
// persisted.
type RiskReport struct {
	GeneratedAt time.Time
	Expired     []Application
	Critical    []Application
	Warning     []Application
}

// Bucket returns the applications classified into b.
func (r RiskReport) Bucket(b RiskBucket) []Application {
	switch b {
	case BucketExpired:
		return r.Expired
	case BucketCritical:
		return r.Critical
	case BucketWarning:
		return r.Warning
	default:
		return nil
	}
}

// CredentialCount returns the number of credentials across all applications in b.
func (r RiskReport) CredentialCount(b RiskBucket) int {
	n := 0
	for _, app := range r.Bucket(b) {
		n += len(app.Credentials)
	}
	return n
}
