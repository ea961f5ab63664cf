package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. The default
// implementation is an in-memory map keyed by task ID; individual methods
// can be overridden through the function fields.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn     func(ctx context.Context, task *domain.Task) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	UpdateFn     func(ctx context.Context, task *domain.Task) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	mu sync.Mutex

	// Tasks holds the default in-memory state, keyed by task ID.
	Tasks map[uuid.UUID]*domain.Task
}

// Ensure MockTaskStore implements store.TaskStore
var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tasks[task.ID] = task
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, exists := m.Tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}

	copied := *task
	return &copied, nil
}

// ListByUser implements the TaskStore interface
func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []*domain.Task
	for _, task := range m.Tasks {
		if task.UserID == userID {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}

	// Newest first, matching the real store's ordering.
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Tasks[task.ID]; !exists {
		return store.ErrTaskNotFound
	}

	copied := *task
	m.Tasks[task.ID] = &copied
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Tasks[id]; !exists {
		return store.ErrTaskNotFound
	}

	delete(m.Tasks, id)
	return nil
}
