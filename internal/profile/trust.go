package profile

import "time"

const (
	emailWeight = 10
	phoneWeight = 20
	idWeight    = 30
)

// ComputeTrustScore sums the fixed weight of every verification present.
// It is always recomputed from the timestamps, never patched incrementally.
func ComputeTrustScore(emailVerifiedAt, phoneVerifiedAt, idVerifiedAt *time.Time) int {
	score := 0
	if emailVerifiedAt != nil {
		score += emailWeight
	}
	if phoneVerifiedAt != nil {
		score += phoneWeight
	}
	if idVerifiedAt != nil {
		score += idWeight
	}
	return score
}
