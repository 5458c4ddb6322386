package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or
// RFC3339. Date-only is stored as start of that day in UTC. null or an
// empty string clears the value.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02", // date only
		time.RFC3339, // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			// If it was date-only (no time component), use start of day UTC
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// Tags accepts either a JSON array of strings or a single raw
// comma-separated string. Entries are trimmed and empty entries discarded;
// order and duplicates are preserved otherwise.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = normalizeTags(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags: use an array of strings or a comma-separated string")
	}
	*t = normalizeTags(strings.Split(raw, ","))
	return nil
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Category    string  `json:"category" binding:"max=100"`
	DueDate     DueDate `json:"dueDate"` // optional: "2026-02-19" or RFC3339
	Tags        Tags    `json:"tags"`
}

// UpdateTaskRequest replaces the whole editable field set. Unknown JSON
// fields are ignored; completed is not editable here (use toggle).
type UpdateTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Category    string  `json:"category" binding:"max=100"`
	DueDate     DueDate `json:"dueDate"`
	Tags        Tags    `json:"tags"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// OverviewResponse is the headline block shared by both stats views.
type OverviewResponse struct {
	Total        int64 `json:"total"`
	Completed    int64 `json:"completed"`
	Pending      int64 `json:"pending"`
	HighPriority int64 `json:"highPriority"`
	Overdue      int64 `json:"overdue"`
}

// StatsResponse is the summary view for the dashboard panel.
type StatsResponse struct {
	Overview       OverviewResponse `json:"overview"`
	CompletionRate int              `json:"completionRate"`
}

// BucketResponse is one slice of a data-driven breakdown. The _id key is
// what the analytics view reads.
type BucketResponse struct {
	Value string `json:"_id"`
	Count int64  `json:"count"`
}

// ActivityResponse is one day of the trailing 7-day creation histogram.
// Only days with at least one creation appear; the chart fills the gaps
// with zero-count days client-side.
type ActivityResponse struct {
	Date  string `json:"_id"`
	Count int64  `json:"count"`
}

// DashboardStatsResponse is the full analytics view.
type DashboardStatsResponse struct {
	Overview       OverviewResponse   `json:"overview"`
	CompletionRate int                `json:"completionRate"`
	ByCategory     []BucketResponse   `json:"byCategory"`
	ByPriority     []BucketResponse   `json:"byPriority"`
	Activity       []ActivityResponse `json:"activity"`
}

// DeleteTaskResponse is returned by single delete.
type DeleteTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// BulkDeleteResponse is returned by bulk delete of completed tasks.
type BulkDeleteResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}
