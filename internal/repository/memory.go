package repository

import (
	"context"
	"sync"
	"time"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	_ TaskRepository = (*MemoryTaskRepository)(nil)
	_ Resetter       = (*MemoryTaskRepository)(nil)
)

// MemoryTaskRepository keeps tasks in a map guarded by a single lock.
type MemoryTaskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]*models.Task
	order  []int64
	lastID int64
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[int64]*models.Task),
	}
}

func (r *MemoryTaskRepository) FindAll(_ context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(r.order))
	for _, id := range r.order {
		tasks = append(tasks, copyTask(r.tasks[id]))
	}
	return tasks, nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (r *MemoryTaskRepository) Insert(_ context.Context, label string) (*models.Task, error) {
	if label == "" {
		return nil, ErrInvalidLabel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	now := time.Now()
	task := &models.Task{
		ID:        r.lastID,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	return copyTask(task), nil
}

func (r *MemoryTaskRepository) SetStatus(_ context.Context, id int64, done bool) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.Done != done {
		task.Done = done
		task.UpdatedAt = time.Now()
	}
	return copyTask(task), nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemoryTaskRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[int64]*models.Task)
	r.order = nil
	r.lastID = 0
	return nil
}

func (r *MemoryTaskRepository) Ping(_ context.Context) error { return nil }

func (r *MemoryTaskRepository) Close() error { return nil }

func copyTask(task *models.Task) *models.Task {
	c := *task
	return &c
}
