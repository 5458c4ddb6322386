package domain

import "math"

// Overview holds the owner-scoped headline counts for the dashboard panel.
// Pending is always Total - Completed.
type Overview struct {
	Total        int64
	Completed    int64
	Pending      int64
	HighPriority int64
	Overdue      int64
}

// Stats is the assembled analytics view for one owner.
type Stats struct {
	Overview       Overview
	CompletionRate int
	ByCategory     []Bucket
	ByPriority     []Bucket
	Activity       []DayCount
}

// CompletionRate is completed/total as a whole percentage, rounded half
// away from zero. Zero total gives 0, never a division error.
func CompletionRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// Bucket is one group of a data-driven breakdown (by category or by
// priority). Value is whatever string is stored, not a fixed palette.
type Bucket struct {
	Value string `bson:"_id"`
	Count int64  `bson:"count"`
}

// DayCount is one day of the creation-activity histogram.
// Date is a UTC calendar date formatted as YYYY-MM-DD. Days with zero
// creations are not emitted; consumers fill the gaps.
type DayCount struct {
	Date  string `bson:"_id"`
	Count int64  `bson:"count"`
}
