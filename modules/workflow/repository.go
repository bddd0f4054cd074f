package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/example/approval-workflow/domain/workflow"
)

// Repository provides access to task and approval-request storage. Approval
// requests are append-only: closing a request is a controlled single
// transition of the open row into a terminal state; closed rows are never
// written again.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new workflow repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migrations for the workflow tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{}, &domain.ApprovalRequest{})
}

// CreateTask saves a new task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindTaskByID retrieves a task by ID.
func (r *Repository) FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// ListTasks retrieves tasks, optionally filtered by assignee and status.
func (r *Repository) ListTasks(ctx context.Context, assigneeID string, status domain.TaskStatus) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Model(&domain.Task{})
	if assigneeID != "" {
		query = query.Where("assignee_id = ?", assigneeID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []*domain.Task
	if err := query.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListHistory returns the full approval-request sequence for a task,
// ordered by request time.
func (r *Repository) ListHistory(ctx context.Context, taskID string) ([]*domain.ApprovalRequest, error) {
	var requests []*domain.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("requested_at, created_at").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return requests, nil
}

// FindOpenRequest returns the task's pending approval request, if any.
func (r *Repository) FindOpenRequest(ctx context.Context, taskID string) (*domain.ApprovalRequest, error) {
	var request domain.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND status = ?", taskID, domain.RequestPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find open request: %w", err)
	}
	return &request, nil
}

// ListPendingTaskIDsOlderThan returns IDs of tasks pending approval whose
// submission happened at or before the cutoff. Used by the auto-approval
// sweep.
func (r *Repository) ListPendingTaskIDsOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("status = ? AND submitted_at IS NOT NULL AND submitted_at <= ?",
			domain.StatusPendingApproval, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending tasks: %w", err)
	}
	return ids, nil
}

// CommitTransition atomically applies one validated transition: the task
// row is updated guarded by its version column, the open request is frozen
// into its terminal state if the transition closes one, and a new request
// row is appended if the transition adds one (a fresh PENDING request on
// SUBMIT_FOR_APPROVAL, or a synthesized closed record when BYPASS finds no
// open request). Returns domain.ErrVersionConflict when another writer got
// there first; nothing is applied in that case.
func (r *Repository) CommitTransition(ctx context.Context, task *domain.Task, expectedVersion int, appended *domain.ApprovalRequest, closed *domain.ApprovalRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Task{}).
			Where("id = ? AND version = ?", task.ID, expectedVersion).
			Updates(map[string]any{
				"status":          task.Status,
				"approval_status": task.ApprovalStatus,
				"submitted_at":    task.SubmittedAt,
				"revision_count":  task.RevisionCount,
				"version":         expectedVersion + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}

		if closed != nil {
			if closed.ID == "" {
				return fmt.Errorf("closed request missing ID")
			}
			if err := r.freezeRequest(tx, closed); err != nil {
				return err
			}
		}

		if appended != nil {
			if err := tx.Create(appended).Error; err != nil {
				return fmt.Errorf("failed to append approval request: %w", err)
			}
		}

		task.Version = expectedVersion + 1
		return nil
	})
}

// freezeRequest moves the identified request from PENDING into its terminal
// state. The status guard in the WHERE clause makes the close idempotent
// against races: a request already closed is never rewritten.
func (r *Repository) freezeRequest(tx *gorm.DB, closed *domain.ApprovalRequest) error {
	result := tx.Model(&domain.ApprovalRequest{}).
		Where("id = ? AND status = ?", closed.ID, domain.RequestPending).
		Updates(map[string]any{
			"status":           closed.Status,
			"approved_by":      closed.ApprovedBy,
			"approved_at":      closed.ApprovedAt,
			"rejected_by":      closed.RejectedBy,
			"rejected_at":      closed.RejectedAt,
			"bypassed_by":      closed.BypassedBy,
			"bypassed_at":      closed.BypassedAt,
			"auto_approved_at": closed.AutoApprovedAt,
			"reason":           closed.Reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to close approval request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
