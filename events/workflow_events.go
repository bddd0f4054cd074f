// Package events defines the typed domain events emitted by the workflow
// engine and consumed by the notification module.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/approval-workflow/domain/workflow"
)

// TaskCreatedEvent is emitted when a new task enters the workflow at TODO.
type TaskCreatedEvent struct {
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	AssigneeID  string    `json:"assignee_id"`
	ProjectID   string    `json:"project_id"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.workflow.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"workflow", "TaskCreated", "v1",
)

// TaskTransitionedEvent is emitted once per committed transition. Emission
// is best-effort: a delivery failure never rolls back the transition.
type TaskTransitionedEvent struct {
	TaskID      string                  `json:"task_id"`
	FromStatus  workflow.TaskStatus     `json:"from_status"`
	ToStatus    workflow.TaskStatus     `json:"to_status"`
	Action      workflow.Action         `json:"action"`
	ActorID     string                  `json:"actor_id"`
	AssigneeID  string                  `json:"assignee_id"`
	ApproverIDs []string                `json:"approver_ids,omitempty"`
	Reason      string                  `json:"reason,omitempty"`
	Approval    workflow.ApprovalStatus `json:"approval_status"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

// TaskTransitionedV1 is the typed event definition for committed transitions.
// Subject: events.workflow.v1.task-transitioned
var TaskTransitionedV1 = helper.EventDefinition[TaskTransitionedEvent](
	"workflow", "TaskTransitioned", "v1",
)
