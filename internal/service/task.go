package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Falcon-J/saathi/common/id"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/store"
)

const maxTaskTitleLength = 200

var ErrTaskNotFound = errors.New("task not found")

type TaskInput struct {
	Title       string
	Description *string
	Priority    model.TaskPriority
	DueDate     *string
	Categories  []string
}

// TaskService mutates a workspace's task list and announces every committed
// change on the realtime stream.
type TaskService interface {
	List(ctx context.Context, workspaceID, actor string) ([]model.Task, error)
	Create(ctx context.Context, workspaceID, actor string, input TaskInput) (*model.Task, error)
	Update(ctx context.Context, workspaceID, taskID, actor string, update model.TaskUpdate) (*model.Task, error)
	Toggle(ctx context.Context, workspaceID, taskID, actor string) (*model.Task, error)
	Delete(ctx context.Context, workspaceID, taskID, actor string) error
	Assign(ctx context.Context, workspaceID, taskID, actor, assignee string) (*model.Task, error)
}

type taskService struct {
	taskStore store.TaskStore
	wsStore   store.WorkspaceStore
	publisher EventPublisher
}

func NewTaskService(taskStore store.TaskStore, wsStore store.WorkspaceStore, publisher EventPublisher) TaskService {
	return &taskService{
		taskStore: taskStore,
		wsStore:   wsStore,
		publisher: publisher,
	}
}

func (s *taskService) List(ctx context.Context, workspaceID, actor string) ([]model.Task, error) {
	if _, err := requireMember(ctx, s.wsStore, workspaceID, actor); err != nil {
		return nil, err
	}

	tasks, err := s.taskStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) Create(ctx context.Context, workspaceID, actor string, input TaskInput) (*model.Task, error) {
	title, err := validateTaskTitle(input.Title)
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, invalid("priority must be low, medium or high")
	}

	if _, err := requireMember(ctx, s.wsStore, workspaceID, actor); err != nil {
		return nil, err
	}

	categories := input.Categories
	if categories == nil {
		categories = []string{}
	}

	now := time.Now()
	task := model.Task{
		ID:          id.NewString(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: trimmed(input.Description),
		Priority:    priority,
		DueDate:     input.DueDate,
		Categories:  categories,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tasks, err := s.taskStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	if err := s.taskStore.SaveAll(ctx, workspaceID, append(tasks, task)); err != nil {
		return nil, fmt.Errorf("saving tasks: %w", err)
	}

	publish(ctx, s.publisher, model.EventTypeTaskCreated, workspaceID, actor, task)

	slog.InfoContext(ctx, "task created", "task_id", task.ID, "workspace_id", workspaceID)
	return &task, nil
}

func (s *taskService) Update(ctx context.Context, workspaceID, taskID, actor string, update model.TaskUpdate) (*model.Task, error) {
	ws, err := requireMember(ctx, s.wsStore, workspaceID, actor)
	if err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, workspaceID, taskID, func(t *model.Task) error {
		return applyUpdate(ws, t, update)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, model.EventTypeTaskUpdated, workspaceID, actor, task)

	slog.InfoContext(ctx, "task updated", "task_id", task.ID, "workspace_id", workspaceID)
	return task, nil
}

func (s *taskService) Toggle(ctx context.Context, workspaceID, taskID, actor string) (*model.Task, error) {
	if _, err := requireMember(ctx, s.wsStore, workspaceID, actor); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, workspaceID, taskID, func(t *model.Task) error {
		t.Completed = !t.Completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, model.EventTypeTaskToggled, workspaceID, actor, task)

	slog.InfoContext(ctx, "task toggled",
		"task_id", task.ID,
		"workspace_id", workspaceID,
		"completed", task.Completed)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, workspaceID, taskID, actor string) error {
	if _, err := requireMember(ctx, s.wsStore, workspaceID, actor); err != nil {
		return err
	}

	tasks, err := s.taskStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	idx := indexOfTask(tasks, taskID)
	if idx < 0 {
		return ErrTaskNotFound
	}
	deleted := tasks[idx]

	if err := s.taskStore.SaveAll(ctx, workspaceID, append(tasks[:idx], tasks[idx+1:]...)); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}

	publish(ctx, s.publisher, model.EventTypeTaskDeleted, workspaceID, actor, taskDeletedData{
		TaskID: deleted.ID,
		Title:  deleted.Title,
	})

	slog.InfoContext(ctx, "task deleted", "task_id", deleted.ID, "workspace_id", workspaceID)
	return nil
}

// Assign is Update restricted to the assignee; an empty assignee clears it.
func (s *taskService) Assign(ctx context.Context, workspaceID, taskID, actor, assignee string) (*model.Task, error) {
	assignee = normalizeEmail(assignee)
	return s.Update(ctx, workspaceID, taskID, actor, model.TaskUpdate{AssignedTo: &assignee})
}

// mutate applies fn to one task and stores the list. The list is rewritten
// as a whole, so concurrent writers to one workspace race and the last
// write wins.
func (s *taskService) mutate(ctx context.Context, workspaceID, taskID string, fn func(*model.Task) error) (*model.Task, error) {
	tasks, err := s.taskStore.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	idx := indexOfTask(tasks, taskID)
	if idx < 0 {
		return nil, ErrTaskNotFound
	}

	if err := fn(&tasks[idx]); err != nil {
		return nil, err
	}
	tasks[idx].UpdatedAt = time.Now()

	if err := s.taskStore.SaveAll(ctx, workspaceID, tasks); err != nil {
		return nil, fmt.Errorf("saving tasks: %w", err)
	}

	task := tasks[idx]
	return &task, nil
}

func applyUpdate(ws *model.Workspace, t *model.Task, u model.TaskUpdate) error {
	if u.Title != nil {
		title, err := validateTaskTitle(*u.Title)
		if err != nil {
			return err
		}
		t.Title = title
	}
	if u.Priority != nil {
		if !u.Priority.IsValid() {
			return invalid("priority must be low, medium or high")
		}
		t.Priority = *u.Priority
	}
	if u.Description != nil {
		t.Description = trimmed(u.Description)
	}
	if u.DueDate != nil {
		if *u.DueDate == "" {
			t.DueDate = nil
		} else {
			t.DueDate = u.DueDate
		}
	}
	if u.Categories != nil {
		t.Categories = u.Categories
	}
	if u.AssignedTo != nil {
		switch assignee := normalizeEmail(*u.AssignedTo); {
		case assignee == "":
			t.AssignedTo = nil
		case !ws.HasMember(assignee):
			return invalid("assignee %s is not a member of this workspace", assignee)
		default:
			t.AssignedTo = &assignee
		}
	}
	return nil
}

func validateTaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title is required")
	}
	if utf8.RuneCountInString(title) > maxTaskTitleLength {
		return "", invalid("title cannot exceed %d characters", maxTaskTitleLength)
	}
	return title, nil
}

func indexOfTask(tasks []model.Task, taskID string) int {
	for i := range tasks {
		if tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
