package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task priorities as stored. The store does not enforce a closed set;
// anything outside these four ranks as 0 when sorting.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Task is the domain entity for a single task record.
// Owner scopes every query and mutation; it is set once at creation.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       primitive.ObjectID `bson:"owner"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Priority    string             `bson:"priority"`
	Category    string             `bson:"category,omitempty"`
	Completed   bool               `bson:"completed"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// PriorityRank maps a priority value to its sort rank.
// Unknown values rank below low, matching the list sort order.
func PriorityRank(p string) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
