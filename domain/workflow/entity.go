// Package workflow provides the core domain types for the task approval
// workflow: the task lifecycle, approval request cycles, role capabilities,
// and the pure approval policy.
package workflow

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus is the externally visible lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo            TaskStatus = "TODO"
	StatusInProgress      TaskStatus = "IN_PROGRESS"
	StatusPendingApproval TaskStatus = "PENDING_APPROVAL"
	StatusDone            TaskStatus = "DONE"
)

// ApprovalStatus is the finer-grained outcome of the approval sub-flow.
// Invariant: Status == PENDING_APPROVAL iff ApprovalStatus == PENDING.
type ApprovalStatus string

const (
	ApprovalNone         ApprovalStatus = "NONE"
	ApprovalPending      ApprovalStatus = "PENDING"
	ApprovalApproved     ApprovalStatus = "APPROVED"
	ApprovalRejected     ApprovalStatus = "REJECTED"
	ApprovalAutoApproved ApprovalStatus = "AUTO_APPROVED"
	ApprovalBypassed     ApprovalStatus = "BYPASSED"
)

// Action identifies a workflow transition request.
type Action string

const (
	ActionStart             Action = "START"
	ActionSubmitForApproval Action = "SUBMIT_FOR_APPROVAL"
	ActionApprove           Action = "APPROVE"
	ActionReject            Action = "REJECT"
	ActionBypass            Action = "BYPASS"
	ActionAutoApprove       Action = "AUTO_APPROVE"
)

// Task is the aggregate root governed by the workflow engine.
// SubmittedAt mirrors the RequestedAt of the most recent approval request
// and RevisionCount counts rejections; both are derived summaries kept on
// the row so the auto-approval sweep can query without joining history.
type Task struct {
	ID             string         `gorm:"primarykey;size:36" json:"id"`
	Title          string         `gorm:"size:200;not null" json:"title"`
	Description    string         `gorm:"size:2000" json:"description"`
	Status         TaskStatus     `gorm:"size:32;not null;index" json:"status"`
	ApprovalStatus ApprovalStatus `gorm:"size:32;not null" json:"approval_status"`
	AssigneeID     string         `gorm:"size:36;not null;index" json:"assignee_id"`
	ProjectID      string         `gorm:"size:36;not null;index" json:"project_id"`
	WorkspaceID    string         `gorm:"size:36;not null;index" json:"workspace_id"`
	Cancelled      bool           `gorm:"not null;default:false" json:"cancelled"`
	SubmittedAt    *time.Time     `gorm:"index" json:"submitted_at,omitempty"`
	RevisionCount  int            `gorm:"not null;default:0" json:"revision_count"`
	Version        int            `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// Terminal reports whether no further transitions are permitted.
func (t *Task) Terminal() bool {
	return t.Status == StatusDone || t.Cancelled
}

// RequestStatus is the status of a single approval request cycle.
type RequestStatus string

const (
	RequestPending      RequestStatus = "PENDING"
	RequestApproved     RequestStatus = "APPROVED"
	RequestRejected     RequestStatus = "REJECTED"
	RequestAutoApproved RequestStatus = "AUTO_APPROVED"
	RequestBypassed     RequestStatus = "BYPASSED"
)

// ApprovalRequest records one "submitted for review -> decided" cycle.
// Exactly one terminal field-set is populated once Status leaves PENDING;
// closed records are never edited again, a new cycle appends a new row.
type ApprovalRequest struct {
	ID             string        `gorm:"primarykey;size:36" json:"id"`
	TaskID         string        `gorm:"size:36;not null;index" json:"task_id"`
	RequestedAt    time.Time     `gorm:"not null;index" json:"requested_at"`
	Status         RequestStatus `gorm:"size:32;not null;index" json:"status"`
	ApproverIDs    []string      `gorm:"serializer:json" json:"approver_ids"`
	ApprovedBy     string        `gorm:"size:36" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	RejectedBy     string        `gorm:"size:36" json:"rejected_by,omitempty"`
	RejectedAt     *time.Time    `json:"rejected_at,omitempty"`
	BypassedBy     string        `gorm:"size:36" json:"bypassed_by,omitempty"`
	BypassedAt     *time.Time    `json:"bypassed_at,omitempty"`
	AutoApprovedAt *time.Time    `json:"auto_approved_at,omitempty"`
	Reason         string        `gorm:"size:1000" json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName returns the table name for the ApprovalRequest model.
func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

// Open reports whether the request is still awaiting a decision.
func (r *ApprovalRequest) Open() bool {
	return r.Status == RequestPending
}

// Role is the effective capability set of an actor for one task, resolved
// once per transition. The zero value grants nothing (fail closed).
type Role struct {
	IsAssignee       bool `json:"is_assignee"`
	IsProjectLead    bool `json:"is_project_lead"`
	IsWorkspaceAdmin bool `json:"is_workspace_admin"`
	IsSystemAdmin    bool `json:"is_system_admin"`
}

// CanDecide reports whether the role may approve or reject a pending request.
func (r Role) CanDecide() bool {
	return r.IsProjectLead || r.IsWorkspaceAdmin || r.IsSystemAdmin
}

// CanBypass reports whether the role may force-complete a task.
func (r Role) CanBypass() bool {
	return r.IsWorkspaceAdmin || r.IsSystemAdmin
}
