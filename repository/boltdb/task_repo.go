package boltdb

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/repository"
)

type taskRecord struct {
	domain.Task
	Seq uint64 `json:"seq"`
}

type taskRepository struct {
	db  *bolt.DB
	now func() time.Time
}

// NewTaskRepository returns a BoltDB-backed task repository.
func NewTaskRepository(db *bolt.DB) repository.TaskRepository {
	return &taskRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var record *taskRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		record, err = loadTask(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &record.Task, nil
}

// List scans the bucket; the embedded store targets single-node deployments
// where a full scan per request is acceptable.
func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var records []taskRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketTasks).ForEach(func(_, v []byte) error {
			var record taskRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			if record.UserID != filter.UserID {
				return nil
			}
			if filter.Status != "" && record.Status != filter.Status {
				return nil
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Seq > records[j].Seq
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			records = nil
		} else {
			records = records[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}

	tasks := make([]domain.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, record.Task)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltInfra.BucketTasks)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return putTask(bucket, &taskRecord{Task: *task, Seq: seq})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	var updated domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		record, err := loadTask(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(&record.Task)
		record.UpdatedAt = r.now()
		updated = record.Task
		return putTask(tx.Bucket(boltInfra.BucketTasks), record)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltInfra.BucketTasks)
		if bucket.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

func loadTask(tx *bolt.Tx, id string) (*taskRecord, error) {
	raw := tx.Bucket(boltInfra.BucketTasks).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var record taskRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func putTask(bucket *bolt.Bucket, record *taskRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(record.ID), payload)
}
