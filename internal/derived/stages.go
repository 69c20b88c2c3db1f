package derived

import (
	"strings"

	"hr-analytics/internal/models"
)

// Funnel buckets, ordered by rank.
const (
	BucketApplied   = "applied"
	BucketInterview = "interview"
	BucketOffer     = "offer"
	BucketHired     = "hired"
	BucketRejected  = "rejected"
)

var bucketRank = map[string]int{
	BucketApplied:   0,
	BucketInterview: 1,
	BucketOffer:     2,
	BucketHired:     3,
}

// Bucket classifies a status by its type. Names are never consulted.
func (env Env) Bucket(status models.Status) string {
	if b, ok := env.StageTypes[strings.ToLower(status.Type)]; ok {
		if _, known := bucketRank[b]; known || b == BucketRejected {
			return b
		}
	}
	return BucketApplied
}

// Reaches reports whether a status has progressed at least to bucket.
// Rejected statuses reach only the applied bucket.
func (env Env) Reaches(status models.Status, bucket string) bool {
	b := env.Bucket(status)
	if b == BucketRejected {
		return bucket == BucketApplied
	}
	return bucketRank[b] >= bucketRank[bucket]
}
