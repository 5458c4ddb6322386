package repo

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
)

// Sort orders accepted by List. Anything else falls back to SortNewest.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortPriority = "priority"
	SortDueDate  = "dueDate"
)

// Status filter values. Empty means no filter on completion.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ListFilter holds optional list parameters. Zero values mean the filter
// is not applied. The owner constraint is never part of this struct; it is
// conjoined unconditionally when the query is built.
type ListFilter struct {
	Status   string
	Priority string
	Category string
	Search   string
	Sort     string
}

// dueDateMax is the sentinel that pushes tasks without a due date to the
// end of a dueDate-ascending sort.
var dueDateMax = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// buildListMatch translates a ListFilter into a $match document, always
// restricted to the given owner.
func buildListMatch(owner primitive.ObjectID, f ListFilter) bson.M {
	match := bson.M{"owner": owner}

	switch f.Status {
	case StatusCompleted:
		match["completed"] = true
	case StatusActive:
		match["completed"] = false
	}
	if f.Priority != "" {
		match["priority"] = f.Priority
	}
	if f.Category != "" {
		match["category"] = f.Category
	}
	if f.Search != "" {
		// Case-insensitive substring match; user input is never a pattern.
		expr := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"title": expr},
			bson.M{"description": expr},
		}
	}
	return match
}

// buildListPipeline produces the full aggregation pipeline for a list
// query: owner-scoped match, then the requested sort order. The priority
// and dueDate sorts need a computed key, added and stripped inside the
// pipeline so it never reaches the caller.
func buildListPipeline(owner primitive.ObjectID, f ListFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: buildListMatch(owner, f)}},
	}

	switch f.Sort {
	case SortOldest:
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
		)
	case SortPriority:
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{"priorityRank": priorityRankExpr()}}},
			bson.D{{Key: "$sort", Value: bson.D{
				{Key: "priorityRank", Value: -1},
				{Key: "createdAt", Value: -1},
			}}},
			bson.D{{Key: "$unset", Value: "priorityRank"}},
		)
	case SortDueDate:
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{
				"dueSort": bson.M{"$ifNull": bson.A{"$dueDate", dueDateMax}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{
				{Key: "dueSort", Value: 1},
				{Key: "createdAt", Value: -1},
			}}},
			bson.D{{Key: "$unset", Value: "dueSort"}},
		)
	default: // SortNewest
		pipeline = append(pipeline,
			bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		)
	}
	return pipeline
}

// priorityRankExpr ranks critical > high > medium > low > anything else.
func priorityRankExpr() bson.M {
	branch := func(p string) bson.M {
		return bson.M{
			"case": bson.M{"$eq": bson.A{"$priority", p}},
			"then": domain.PriorityRank(p),
		}
	}
	return bson.M{"$switch": bson.M{
		"branches": bson.A{
			branch(domain.PriorityCritical),
			branch(domain.PriorityHigh),
			branch(domain.PriorityMedium),
			branch(domain.PriorityLow),
		},
		"default": 0,
	}}
}
