package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const dateOnly = "2006-01-02"

type CreateInput struct {
	Title       string
	Description *string
	Priority    string
	Status      string
	DueDate     string
}

// UpdateInput holds the fields a client sent. Nil means "not sent"; the
// Clear flags record an explicit null.
type UpdateInput struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Priority         *string
	Status           *string
	DueDate          *string
	ClearDueDate     bool
}

// ListQuery narrows and pages a task listing. Zero Limit means no limit.
type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, userID string, q ListQuery) ([]domain.Task, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, domain.ErrInvalidPaging
	}
	filter := repository.TaskFilter{UserID: userID, Limit: q.Limit, Offset: q.Offset}
	if q.Status != "" {
		parsed, err := domain.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.owned(ctx, userID, id, "view")
}

func (uc *UseCase) CreateTask(ctx context.Context, userID string, in CreateInput) (*domain.Task, error) {
	if in.Title == "" {
		return nil, domain.ErrTitleRequired
	}

	priority := domain.PriorityMedium
	if in.Priority != "" {
		p, err := domain.ParsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	status := domain.StatusPending
	if in.Status != "" {
		s, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      status,
	}
	if in.DueDate != "" {
		due, err := ParseDueDate(in.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("task created", zap.String("task_id", created.ID), zap.String("user_id", userID))
	return created, nil
}

// UpdateTask checks existence and ownership before validating the input, so
// non-owners always see 403 regardless of what they sent.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, in UpdateInput) (*domain.Task, error) {
	current, err := uc.owned(ctx, userID, id, "update")
	if err != nil {
		return nil, err
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}
	return uc.tasks.Update(ctx, id, patch)
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := uc.owned(ctx, userID, id, "delete"); err != nil {
		return err
	}
	return uc.tasks.Delete(ctx, id)
}

func (uc *UseCase) owned(ctx context.Context, userID, id, action string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(userID) {
		uc.logger.Warn("task ownership check failed",
			zap.String("task_id", id),
			zap.String("user_id", userID),
			zap.String("action", action))
		return nil, domain.ErrForbiddenTask(action)
	}
	return task, nil
}

func buildPatch(in UpdateInput) (domain.TaskPatch, error) {
	var patch domain.TaskPatch

	if in.Title != nil {
		if *in.Title == "" {
			return patch, domain.ErrTitleEmpty
		}
		patch.Title = in.Title
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}
	if in.Status != nil {
		s, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	}

	patch.ClearDescription = in.ClearDescription
	if !in.ClearDescription {
		patch.Description = in.Description
	}

	switch {
	case in.ClearDueDate:
		patch.ClearDueDate = true
	case in.DueDate != nil && *in.DueDate == "":
		patch.ClearDueDate = true
	case in.DueDate != nil:
		due, err := ParseDueDate(*in.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}

	return patch, nil
}

// ParseDueDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func ParseDueDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(dateOnly, value); err == nil {
		return parsed, nil
	}
	return time.Time{}, domain.ErrInvalidDueDate
}
