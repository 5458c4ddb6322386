package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"

	"github.com/Hritabrataghosh/neon-tasks/internal/cache"
	"github.com/Hritabrataghosh/neon-tasks/internal/domain"
	"github.com/Hritabrataghosh/neon-tasks/internal/repo"
)

var (
	// ErrNotFound covers both a nonexistent id and an id owned by someone
	// else; callers cannot tell the two apart.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyTitle is returned when the title is empty after trimming.
	ErrEmptyTitle = errors.New("title is required")
)

// activityWindow is how far back the creation histogram reaches.
const activityWindow = 7 * 24 * time.Hour

// TaskInput carries the editable field set for create and update.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     *time.Time
	Tags        []string
}

// TaskService owns task business rules: validation, defaults, owner
// scoping, statistics assembly and cache orchestration.
type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

func (s *TaskService) Create(ctx context.Context, owner string, in TaskInput) (domain.Task, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return domain.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().UTC()
	t, err := s.repo.Create(ctx, domain.Task{
		Owner:       ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Category:    strings.TrimSpace(in.Category),
		Completed:   false,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.invalidateCache(ctx, owner)
	return t, nil
}

func (s *TaskService) List(ctx context.Context, owner string, f repo.ListFilter) ([]domain.Task, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		key := cache.ListKey(owner, f)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, key); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, ownerID, f)
			if err != nil {
				return nil, err
			}
			list = nonNil(list)
			_ = s.cache.SetList(ctx, key, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]domain.Task), nil
	}
	list, err := s.repo.List(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

func (s *TaskService) Get(ctx context.Context, owner, id string) (domain.Task, error) {
	ownerID, taskID, err := parseIDs(owner, id)
	if err != nil {
		return domain.Task{}, err
	}
	t, err := s.repo.GetByID(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}

// Update replaces the whole editable field set of the task matching
// {id, owner}. Completed is untouched; toggle is the only way to flip it.
func (s *TaskService) Update(ctx context.Context, owner, id string, in TaskInput) (domain.Task, error) {
	ownerID, taskID, err := parseIDs(owner, id)
	if err != nil {
		return domain.Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	t, err := s.repo.Replace(ctx, ownerID, taskID, domain.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Category:    strings.TrimSpace(in.Category),
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	})
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	s.invalidateCache(ctx, owner)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, owner, id string) error {
	ownerID, taskID, err := parseIDs(owner, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, taskID); err != nil {
		return mapNotFound(err)
	}
	s.invalidateCache(ctx, owner)
	return nil
}

// Toggle flips completed on the task matching {id, owner}.
func (s *TaskService) Toggle(ctx context.Context, owner, id string) (domain.Task, error) {
	ownerID, taskID, err := parseIDs(owner, id)
	if err != nil {
		return domain.Task{}, err
	}
	t, err := s.repo.Toggle(ctx, ownerID, taskID)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	s.invalidateCache(ctx, owner)
	return t, nil
}

// DeleteCompleted removes all of the owner's completed tasks and returns
// how many were removed. A zero count is a success, not an error.
func (s *TaskService) DeleteCompleted(ctx context.Context, owner string) (int64, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteCompleted(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx, owner)
	return n, nil
}

// Summary computes the headline counts and the completion rate.
func (s *TaskService) Summary(ctx context.Context, owner string) (domain.Overview, int, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return domain.Overview{}, 0, err
	}
	o, err := s.repo.Overview(ctx, ownerID, time.Now().UTC())
	if err != nil {
		return domain.Overview{}, 0, err
	}
	return o, domain.CompletionRate(o.Completed, o.Total), nil
}

// Dashboard assembles the full analytics view: overview, completion rate,
// data-driven category/priority breakdowns and the trailing 7-day
// creation histogram.
func (s *TaskService) Dashboard(ctx context.Context, owner string) (domain.Stats, error) {
	if s.cache != nil {
		key := cache.StatsKey(owner)
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if st, err := s.cache.GetStats(ctx, owner); err == nil && st != nil {
				return *st, nil
			}
			st, err := s.buildDashboard(ctx, owner)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetStats(ctx, owner, st)
			return st, nil
		})
		if err != nil {
			return domain.Stats{}, err
		}
		return v.(domain.Stats), nil
	}
	return s.buildDashboard(ctx, owner)
}

func (s *TaskService) buildDashboard(ctx context.Context, owner string) (domain.Stats, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return domain.Stats{}, err
	}
	now := time.Now().UTC()

	overview, err := s.repo.Overview(ctx, ownerID, now)
	if err != nil {
		return domain.Stats{}, err
	}
	byCategory, err := s.repo.GroupByField(ctx, ownerID, "category")
	if err != nil {
		return domain.Stats{}, err
	}
	byPriority, err := s.repo.GroupByField(ctx, ownerID, "priority")
	if err != nil {
		return domain.Stats{}, err
	}
	activity, err := s.repo.Activity(ctx, ownerID, now.Add(-activityWindow))
	if err != nil {
		return domain.Stats{}, err
	}

	return domain.Stats{
		Overview:       overview,
		CompletionRate: domain.CompletionRate(overview.Completed, overview.Total),
		ByCategory:     byCategory,
		ByPriority:     byPriority,
		Activity:       activity,
	}, nil
}

func (s *TaskService) invalidateCache(ctx context.Context, owner string) {
	if s.cache != nil {
		_ = s.cache.InvalidateOwner(ctx, owner)
	}
}

// parseID converts a hex id from a path or token into an ObjectID. An
// unparsable id cannot match any document, so it behaves as NotFound.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func parseIDs(owner, id string) (primitive.ObjectID, primitive.ObjectID, error) {
	ownerID, err := parseID(owner)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	taskID, err := parseID(id)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return ownerID, taskID, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func nonNil(list []domain.Task) []domain.Task {
	if list == nil {
		return []domain.Task{}
	}
	return list
}
