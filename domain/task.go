package domain

import "time"

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// ParsePriority accepts only the exact upper-case enum names.
func ParsePriority(value string) (Priority, error) {
	switch p := Priority(value); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", ErrInvalidPriority
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusArchived   Status = "ARCHIVED"
)

func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// Task represents a user-owned work item.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.UserID == userID
}

// TaskPatch carries a partial update. Nil fields are left unchanged; the Clear
// flags null out the optional columns.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Priority         *Priority
	Status           *Status
	DueDate          *time.Time
	ClearDueDate     bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.Priority == nil && p.Status == nil && p.DueDate == nil && !p.ClearDueDate
}

// Apply mutates t with the fields present in the patch.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	switch {
	case p.ClearDescription:
		t.Description = nil
	case p.Description != nil:
		desc := *p.Description
		t.Description = &desc
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
}
