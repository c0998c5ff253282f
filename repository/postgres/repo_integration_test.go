package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// newTestPool connects to TEST_DATABASE_URL and applies the up migrations.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	files, err := filepath.Glob(filepath.Join("..", "..", "assets", "migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	sort.Strings(files)
	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			t.Fatalf("apply %s: %v", file, err)
		}
	}
	return pool
}

func createTestUser(t *testing.T, users repository.UserRepository) *domain.User {
	t.Helper()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	user, err := users.Create(context.Background(), &domain.User{
		Username:     "user_" + suffix,
		Email:        suffix + "@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	return user
}

func TestUserRepository_Postgres(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user := createTestUser(t, users)

	if _, err := users.Create(ctx, &domain.User{Username: user.Username, Email: "other@example.com", PasswordHash: "x"}); err != domain.ErrUserExists {
		t.Fatalf("duplicate username: got %v, want ErrUserExists", err)
	}

	found, err := users.FindByUsernameOrEmail(ctx, "nobody", user.Email)
	if err != nil || found.ID != user.ID {
		t.Fatalf("FindByUsernameOrEmail = %v, %v", found, err)
	}
	if _, err := users.GetByID(ctx, uuid.NewString()); err != domain.ErrUserNotFound {
		t.Fatalf("GetByID unknown: got %v", err)
	}
}

func TestTaskRepository_Postgres(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	tasks := NewTaskRepository(pool)
	ctx := context.Background()

	owner := createTestUser(t, users)
	desc := "details"
	task, err := tasks.Create(ctx, &domain.Task{
		UserID:      owner.ID,
		Title:       "first",
		Description: &desc,
		Priority:    domain.PriorityHigh,
		Status:      domain.StatusPending,
	})
	if err != nil {
		t.Fatalf("Create task failed: %v", err)
	}

	status := domain.StatusCompleted
	updated, err := tasks.Update(ctx, task.ID, domain.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "first" || updated.Priority != domain.PriorityHigh || updated.Description == nil {
		t.Errorf("partial update changed other fields: %+v", updated)
	}

	list, err := tasks.List(ctx, repository.TaskFilter{UserID: owner.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := tasks.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := tasks.Delete(ctx, task.ID); err != domain.ErrTaskNotFound {
		t.Fatalf("second Delete: got %v, want ErrTaskNotFound", err)
	}
}
