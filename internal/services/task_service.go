package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/daily-tracker/internal/constants"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

// TaskService handles task business logic
type TaskService struct {
	store *repository.Store
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title     string
	Company   string
	URL       string
	Type      string
	Completed bool
	AddedDate *time.Time
}

// Create rejects a task whose URL matches one added within the duplicate
// window.
func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	url := strings.TrimSpace(input.URL)
	duplicate, err := s.IsDuplicate(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateTask
	}

	task := &models.Task{
		UserID:    userID,
		Title:     title,
		Company:   input.Company,
		URL:       url,
		Type:      input.Type,
		Completed: input.Completed,
	}
	if input.AddedDate != nil {
		task.AddedDate = *input.AddedDate
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// IsDuplicate reports whether the user created a task with an equivalent URL
// during the last five days. URLs compare case-insensitively and ignore
// trailing slashes. An empty URL is never a duplicate.
func (s *TaskService) IsDuplicate(ctx context.Context, userID, url string) (bool, error) {
	key := normalizeTaskURL(url)
	if key == "" {
		return false, nil
	}

	since := s.store.Now().Add(-constants.TaskDuplicateWindow)
	recent, err := s.store.ListTasksSince(ctx, userID, since)
	if err != nil {
		return false, fmt.Errorf("failed to list recent tasks: %w", err)
	}
	for _, t := range recent {
		if normalizeTaskURL(t.URL) == key {
			return true, nil
		}
	}
	return false, nil
}

func normalizeTaskURL(url string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(url)), "/")
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	return owned(task, err, func(t *models.Task) string { return t.UserID }, userID)
}

func (s *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	return s.store.ListTasks(ctx, userID)
}

func (s *TaskService) Update(ctx context.Context, userID, id string, patch repository.TaskPatch) (*models.Task, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleRequired
	}

	task, err := s.store.UpdateTask(ctx, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return task, err
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
