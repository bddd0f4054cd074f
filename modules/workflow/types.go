package workflow

import (
	"context"
	"time"

	domain "github.com/example/approval-workflow/domain/workflow"
)

// CreateTaskRequest is the request for registering a task with the engine.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id"`
	ProjectID   string `json:"project_id"`
	WorkspaceID string `json:"workspace_id"`
}

// TaskView is the authoritative task snapshot returned after every
// operation. UI layers may render optimistically but must reconcile
// against this.
type TaskView struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         domain.TaskStatus     `json:"status"`
	ApprovalStatus domain.ApprovalStatus `json:"approval_status"`
	AssigneeID     string                `json:"assignee_id"`
	ProjectID      string                `json:"project_id"`
	WorkspaceID    string                `json:"workspace_id"`
	Cancelled      bool                  `json:"cancelled"`
	SubmittedAt    *time.Time            `json:"submitted_at,omitempty"`
	RevisionCount  int                   `json:"revision_count"`
	Version        int                   `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// GetTaskRequest is the request for reading one task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	AssigneeID string            `json:"assignee_id,omitempty"`
	Status     domain.TaskStatus `json:"status,omitempty"`
}

// ListTasksResponse is the response for listing tasks.
type ListTasksResponse struct {
	Tasks []TaskView `json:"tasks"`
	Total int        `json:"total"`
}

// TransitionRequest asks the engine to apply one action to a task on
// behalf of an actor. Reason is required for REJECT and BYPASS.
type TransitionRequest struct {
	TaskID  string `json:"task_id"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// TransitionResponse carries either the updated snapshot or a structured
// policy denial. Infrastructure failures travel as plain errors instead.
type TransitionResponse struct {
	Task        *TaskView         `json:"task,omitempty"`
	Denied      bool              `json:"denied"`
	DenyReason  domain.DenyReason `json:"deny_reason,omitempty"`
	DenyMessage string            `json:"deny_message,omitempty"`
}

// ApprovalRequestView is one approval cycle as shown in history.
type ApprovalRequestView struct {
	ID             string               `json:"id"`
	TaskID         string               `json:"task_id"`
	RequestedAt    time.Time            `json:"requested_at"`
	Status         domain.RequestStatus `json:"status"`
	ApproverIDs    []string             `json:"approver_ids,omitempty"`
	ApprovedBy     string               `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time           `json:"approved_at,omitempty"`
	RejectedBy     string               `json:"rejected_by,omitempty"`
	RejectedAt     *time.Time           `json:"rejected_at,omitempty"`
	BypassedBy     string               `json:"bypassed_by,omitempty"`
	BypassedAt     *time.Time           `json:"bypassed_at,omitempty"`
	AutoApprovedAt *time.Time           `json:"auto_approved_at,omitempty"`
	Reason         string               `json:"reason,omitempty"`
}

// HistoryRequest is the request for a task's approval history.
type HistoryRequest struct {
	TaskID string `json:"task_id"`
}

// HistoryResponse is the ordered approval-request sequence of a task.
type HistoryResponse struct {
	Requests []ApprovalRequestView `json:"requests"`
	Total    int                   `json:"total"`
}

// SweepRequest triggers an auto-approval sweep. A zero Now means the
// current time.
type SweepRequest struct {
	Now time.Time `json:"now,omitempty"`
}

// SweepResponse reports the sweep outcome.
type SweepResponse struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
}

// Port is the workflow interface used by driving adapters (hexagonal
// port): the API module and the auto-approval sweeper.
type Port interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskView, error)
	GetTask(ctx context.Context, taskID string) (*TaskView, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	Submit(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error)
	Approve(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error)
	Reject(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error)
	Bypass(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error)
	Start(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error)
	GetHistory(ctx context.Context, taskID string) (*HistoryResponse, error)
	RunSweep(ctx context.Context, now time.Time) (*SweepResponse, error)
}

// toTaskView converts a domain Task to its snapshot view.
func toTaskView(task *domain.Task) TaskView {
	return TaskView{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		ApprovalStatus: task.ApprovalStatus,
		AssigneeID:     task.AssigneeID,
		ProjectID:      task.ProjectID,
		WorkspaceID:    task.WorkspaceID,
		Cancelled:      task.Cancelled,
		SubmittedAt:    task.SubmittedAt,
		RevisionCount:  task.RevisionCount,
		Version:        task.Version,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

// toRequestView converts a domain ApprovalRequest to its history view.
func toRequestView(request *domain.ApprovalRequest) ApprovalRequestView {
	return ApprovalRequestView{
		ID:             request.ID,
		TaskID:         request.TaskID,
		RequestedAt:    request.RequestedAt,
		Status:         request.Status,
		ApproverIDs:    request.ApproverIDs,
		ApprovedBy:     request.ApprovedBy,
		ApprovedAt:     request.ApprovedAt,
		RejectedBy:     request.RejectedBy,
		RejectedAt:     request.RejectedAt,
		BypassedBy:     request.BypassedBy,
		BypassedAt:     request.BypassedAt,
		AutoApprovedAt: request.AutoApprovedAt,
		Reason:         request.Reason,
	}
}
